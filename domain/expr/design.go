package expr

import (
	"fmt"
)

// Level identifies which side of the contrast a sample belongs to
type Level int

const (
	LevelControl Level = iota
	LevelTreatment
)

// String returns the level name
func (l Level) String() string {
	if l == LevelTreatment {
		return "treatment"
	}
	return "control"
}

// DesignSpec captures the model the engine should fit: a two-level condition
// factor ordered [control, treatment] plus an optional additive covariate.
// Effect-size sign is therefore always treatment-vs-control.
type DesignSpec struct {
	ConditionColumn string   `json:"condition_column"`
	ControlLabel    string   `json:"control_label"`
	TreatmentLabel  string   `json:"treatment_label"`
	Covariate       string   `json:"covariate,omitempty"` // empty when not configured
	Condition       []Level  `json:"condition"`           // per sample, matrix column order
	CovariateValues []string `json:"covariate_values,omitempty"`
}

// Formula returns the model formula terms. The covariate term always comes
// first; the additive (non-interaction) form is fixed.
func (d DesignSpec) Formula() string {
	if d.Covariate != "" {
		return fmt.Sprintf("%s + %s", d.Covariate, d.ConditionColumn)
	}
	return d.ConditionColumn
}

// SampleCount returns the number of samples covered by the design
func (d DesignSpec) SampleCount() int {
	return len(d.Condition)
}

// GroupSizes returns the number of control and treatment samples
func (d DesignSpec) GroupSizes() (control, treatment int) {
	for _, level := range d.Condition {
		if level == LevelTreatment {
			treatment++
		} else {
			control++
		}
	}
	return control, treatment
}

// BuildDesign converts the configured condition column into the ordered
// two-level factor and attaches the optional covariate term.
//
// A sample whose condition value matches neither label is a hard error here,
// before any modeling: silently dropping samples would desynchronize the
// metadata from the count matrix columns.
func BuildDesign(meta *SampleMetadata, conditionColumn, controlLabel, treatmentLabel, covariate string) (DesignSpec, error) {
	values, err := meta.Column(conditionColumn)
	if err != nil {
		return DesignSpec{}, err
	}

	design := DesignSpec{
		ConditionColumn: conditionColumn,
		ControlLabel:    controlLabel,
		TreatmentLabel:  treatmentLabel,
		Covariate:       covariate,
		Condition:       make([]Level, len(values)),
	}

	for i, v := range values {
		switch v {
		case controlLabel:
			design.Condition[i] = LevelControl
		case treatmentLabel:
			design.Condition[i] = LevelTreatment
		default:
			return DesignSpec{}, fmt.Errorf("%w: sample %q has %s=%q (expected %q or %q)",
				ErrUnknownLevel, meta.Samples[i], conditionColumn, v, controlLabel, treatmentLabel)
		}
	}

	if covariate != "" {
		covValues, err := meta.Column(covariate)
		if err != nil {
			return DesignSpec{}, err
		}
		design.CovariateValues = covValues
	}

	return design, nil
}
