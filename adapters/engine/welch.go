package engine

import (
	"context"
	"fmt"
	"math"

	"degreport/domain/expr"
	"degreport/ports"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// WelchEngine is the built-in differential expression engine. It normalizes
// library depth with median-of-ratios size factors, estimates per-gene log2
// fold changes on log-transformed normalized counts, tests them with a
// Welch-style statistic against the configured effect threshold, and applies
// Benjamini-Hochberg correction across the gene family.
//
// A covariate is handled additively: the contrast is estimated within each
// covariate stratum and combined with stratum-size weights. Strata missing
// either group contribute nothing to the contrast.
type WelchEngine struct{}

// NewWelchEngine creates the built-in engine
func NewWelchEngine() *WelchEngine {
	return &WelchEngine{}
}

// pseudocount keeps zero counts finite on the log2 scale
const pseudocount = 1.0

// Fit implements ports.DifferentialEngine
func (e *WelchEngine) Fit(ctx context.Context, counts *expr.CountMatrix, design expr.DesignSpec, params ports.FitParams) ([]expr.ResultRecord, error) {
	if design.SampleCount() != counts.SampleCount() {
		return nil, fmt.Errorf("design covers %d samples, matrix has %d", design.SampleCount(), counts.SampleCount())
	}
	nControl, nTreatment := design.GroupSizes()
	if nControl < 2 || nTreatment < 2 {
		return nil, fmt.Errorf("need at least 2 samples per group, have %d control and %d treatment", nControl, nTreatment)
	}

	sizeFactors, err := SizeFactors(counts)
	if err != nil {
		return nil, err
	}

	strata := stratify(design)

	results := make([]expr.ResultRecord, counts.GeneCount())
	pvalues := make([]float64, counts.GeneCount())

	for i := 0; i < counts.GeneCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		normalized := make([]float64, counts.SampleCount())
		logNorm := make([]float64, counts.SampleCount())
		for j, c := range counts.Row(i) {
			normalized[j] = c / sizeFactors[j]
			logNorm[j] = math.Log2(normalized[j] + pseudocount)
		}

		baseMean, _ := stats.Mean(normalized)
		lfc, se, df := e.contrast(logNorm, design, strata)
		stat, pvalue := waldTest(lfc, se, df, params.LFCThreshold)

		results[i] = expr.ResultRecord{
			Gene:           counts.Genes[i],
			BaseMean:       baseMean,
			Log2FoldChange: lfc,
			Stat:           stat,
			PValue:         pvalue,
		}
		pvalues[i] = pvalue
	}

	for i, q := range AdjustBH(pvalues) {
		results[i].AdjPValue = q
	}

	return results, nil
}

// stratify groups sample indices by covariate value; without a covariate
// every sample lands in a single stratum
func stratify(design expr.DesignSpec) map[string][]int {
	strata := make(map[string][]int)
	for j := 0; j < design.SampleCount(); j++ {
		key := ""
		if design.Covariate != "" {
			key = design.CovariateValues[j]
		}
		strata[key] = append(strata[key], j)
	}
	return strata
}

// contrast estimates the treatment-vs-control difference in log2 space,
// its standard error, and Welch-Satterthwaite degrees of freedom, combining
// covariate strata by size.
func (e *WelchEngine) contrast(logNorm []float64, design expr.DesignSpec, strata map[string][]int) (lfc, se, df float64) {
	var weightSum, lfcSum, varSum, dfSum float64

	for _, samples := range strata {
		var control, treatment []float64
		for _, j := range samples {
			if design.Condition[j] == expr.LevelTreatment {
				treatment = append(treatment, logNorm[j])
			} else {
				control = append(control, logNorm[j])
			}
		}
		if len(control) < 2 || len(treatment) < 2 {
			continue
		}

		diff, variance, freedom := welchComponents(control, treatment)
		w := float64(len(samples))
		weightSum += w
		lfcSum += w * diff
		varSum += w * w * variance
		dfSum += freedom
	}

	if weightSum == 0 {
		return math.NaN(), math.NaN(), 0
	}

	lfc = lfcSum / weightSum
	se = math.Sqrt(varSum) / weightSum
	return lfc, se, dfSum
}

// welchComponents returns the mean difference, its squared standard error,
// and Welch-Satterthwaite degrees of freedom for one stratum
func welchComponents(control, treatment []float64) (diff, seSquared, df float64) {
	n1 := float64(len(treatment))
	n2 := float64(len(control))

	mean1 := mean(treatment)
	mean2 := mean(control)
	var1 := sampleVariance(treatment, mean1)
	var2 := sampleVariance(control, mean2)

	diff = mean1 - mean2
	seSquared = var1/n1 + var2/n2
	if seSquared > 0 {
		df = math.Pow(var1/n1+var2/n2, 2) /
			(math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))
	}
	return diff, seSquared, df
}

// waldTest computes the test statistic and two-sided p-value. When an effect
// threshold is configured the test is against |lfc| > threshold, so genes
// inside the threshold band get a p-value of 1.
func waldTest(lfc, se, df, lfcThreshold float64) (stat, pvalue float64) {
	if math.IsNaN(lfc) || se == 0 || df <= 0 {
		return math.NaN(), math.NaN()
	}

	effect := lfc
	if lfcThreshold > 0 {
		excess := math.Abs(lfc) - lfcThreshold
		if excess <= 0 {
			return 0, 1
		}
		effect = math.Copysign(excess, lfc)
	}

	stat = effect / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pvalue = 2 * dist.CDF(-math.Abs(stat))
	if pvalue > 1 {
		pvalue = 1
	}
	return stat, pvalue
}

func mean(data []float64) float64 {
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func sampleVariance(data []float64, mean float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(data)-1)
}
