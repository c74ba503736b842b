package ports

import (
	"context"

	"degreport/domain/expr"
)

// FitParams carries the thresholds the engine tests under
type FitParams struct {
	Alpha        float64 // significance level used for adjusted p-values
	LFCThreshold float64 // minimum effect size the test is performed against
}

// DifferentialEngine is the statistical engine behind the pipeline: given a
// count matrix and a design it returns one ResultRecord per gene, with raw
// and multiple-testing-adjusted p-values.
//
// The pipeline treats Fit as a pure call with no side effects to manage.
// Normalization, dispersion handling and model fitting are entirely the
// engine's concern; failures are propagated opaquely and never retried.
type DifferentialEngine interface {
	Fit(ctx context.Context, counts *expr.CountMatrix, design expr.DesignSpec, params FitParams) ([]expr.ResultRecord, error)
}
