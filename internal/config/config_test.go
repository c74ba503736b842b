package config

import (
	"testing"

	"degreport/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DataFile:        "counts.tsv",
		MetadataFile:    "samples.tsv",
		ConditionColumn: "condition",
		ControlGroup:    "untreated",
		TreatmentGroup:  "treated",
		Alpha:           0.05,
		LFCThreshold:    0,
		OutputDir:       "out",
		TopGenes:        20,
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing counts", func(c *Config) { c.DataFile = "" }},
		{"missing metadata", func(c *Config) { c.MetadataFile = "" }},
		{"missing condition column", func(c *Config) { c.ConditionColumn = "" }},
		{"missing labels", func(c *Config) { c.ControlGroup = "" }},
		{"identical labels", func(c *Config) { c.TreatmentGroup = c.ControlGroup }},
		{"alpha zero", func(c *Config) { c.Alpha = 0 }},
		{"alpha above one", func(c *Config) { c.Alpha = 1.5 }},
		{"negative lfc threshold", func(c *Config) { c.LFCThreshold = -1 }},
		{"negative top genes", func(c *Config) { c.TopGenes = -5 }},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestDefault_EnvFallbacks(t *testing.T) {
	t.Setenv("DEG_COUNTS", "env-counts.tsv")
	t.Setenv("DEG_ALPHA", "0.2")
	t.Setenv("DEG_VOLCANO", "false")
	t.Setenv("DEG_TOP_GENES", "5")

	cfg := Default()
	assert.Equal(t, "env-counts.tsv", cfg.DataFile)
	assert.Equal(t, 0.2, cfg.Alpha)
	assert.False(t, cfg.PlotVolcano)
	assert.Equal(t, 5, cfg.TopGenes)

	// Untouched options keep their defaults
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 0.0, cfg.LFCThreshold)
}

func TestDefault_BadEnvValuesFallBack(t *testing.T) {
	t.Setenv("DEG_ALPHA", "not-a-float")
	t.Setenv("DEG_TOP_GENES", "many")

	cfg := Default()
	assert.Equal(t, 0.05, cfg.Alpha)
	assert.Equal(t, 20, cfg.TopGenes)
}
