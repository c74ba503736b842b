package config

import (
	"os"
	"strconv"

	"degreport/internal/errors"
)

// Config is the report's parameter block. Every option is independently
// defaultable; env variables fill anything a flag leaves unset.
type Config struct {
	DataFile        string  // path to the count matrix
	MetadataFile    string  // path to the sample metadata table
	ConditionColumn string  // metadata column holding the two-level condition
	Covariate       string  // optional additive covariate column
	ControlGroup    string  // condition label treated as baseline
	TreatmentGroup  string  // condition label whose effect is reported
	Alpha           float64 // adjusted p-value significance threshold
	LFCThreshold    float64 // minimum log2 fold-change threshold
	OutputDir       string  // directory for DEG_results.csv and report.html
	PlotVolcano     bool    // render the volcano plot
	TopGenes        int     // genes to label on the volcano plot
	NotesFile       string  // optional markdown notes embedded in the report
}

// Default returns a config pre-populated from environment variables
func Default() Config {
	return Config{
		DataFile:        getEnvOrDefault("DEG_COUNTS", ""),
		MetadataFile:    getEnvOrDefault("DEG_METADATA", ""),
		ConditionColumn: getEnvOrDefault("DEG_CONDITION", ""),
		Covariate:       getEnvOrDefault("DEG_COVARIATE", ""),
		ControlGroup:    getEnvOrDefault("DEG_CONTROL", ""),
		TreatmentGroup:  getEnvOrDefault("DEG_TREATMENT", ""),
		Alpha:           getEnvFloatOrDefault("DEG_ALPHA", 0.05),
		LFCThreshold:    getEnvFloatOrDefault("DEG_LFC_THRESHOLD", 0),
		OutputDir:       getEnvOrDefault("DEG_OUTPUT_DIR", "out"),
		PlotVolcano:     getEnvBoolOrDefault("DEG_VOLCANO", true),
		TopGenes:        getEnvIntOrDefault("DEG_TOP_GENES", 20),
		NotesFile:       getEnvOrDefault("DEG_NOTES", ""),
	}
}

// Validate checks the parameter block once, before the pipeline starts
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return errors.ConfigInvalid("count matrix path is required")
	}
	if c.MetadataFile == "" {
		return errors.ConfigInvalid("sample metadata path is required")
	}
	if c.ConditionColumn == "" {
		return errors.ConfigInvalid("condition column is required")
	}
	if c.ControlGroup == "" || c.TreatmentGroup == "" {
		return errors.ConfigInvalid("control and treatment labels are required")
	}
	if c.ControlGroup == c.TreatmentGroup {
		return errors.ConfigInvalid("control and treatment labels must differ")
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return errors.ConfigInvalid("alpha must be in (0, 1]")
	}
	if c.LFCThreshold < 0 {
		return errors.ConfigInvalid("lfc threshold must be non-negative")
	}
	if c.TopGenes < 0 {
		return errors.ConfigInvalid("top genes must be non-negative")
	}
	if c.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
