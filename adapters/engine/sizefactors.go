package engine

import (
	"fmt"
	"math"

	"degreport/domain/expr"

	"github.com/montanaflynn/stats"
)

// SizeFactors computes per-sample median-of-ratios scaling factors: each
// gene with positive counts in every sample contributes its count-to-
// geometric-mean ratio, and a sample's factor is the median of those ratios.
//
// When no gene is expressed in every sample the estimator falls back to
// total-count (library depth) scaling.
func SizeFactors(counts *expr.CountMatrix) ([]float64, error) {
	nSamples := counts.SampleCount()
	ratios := make([][]float64, nSamples)

	for i := 0; i < counts.GeneCount(); i++ {
		row := counts.Row(i)
		logSum := 0.0
		allPositive := true
		for _, c := range row {
			if c <= 0 {
				allPositive = false
				break
			}
			logSum += math.Log(c)
		}
		if !allPositive {
			continue
		}
		geoMean := math.Exp(logSum / float64(nSamples))
		for j, c := range row {
			ratios[j] = append(ratios[j], c/geoMean)
		}
	}

	if len(ratios[0]) == 0 {
		return depthFactors(counts)
	}

	factors := make([]float64, nSamples)
	for j := range factors {
		median, err := stats.Median(ratios[j])
		if err != nil || median <= 0 {
			return nil, fmt.Errorf("size factor estimation failed for sample %s", counts.Samples[j])
		}
		factors[j] = median
	}
	return factors, nil
}

// depthFactors scales each sample by its total count relative to the mean
// library depth
func depthFactors(counts *expr.CountMatrix) ([]float64, error) {
	nSamples := counts.SampleCount()
	totals := make([]float64, nSamples)
	for i := 0; i < counts.GeneCount(); i++ {
		for j, c := range counts.Row(i) {
			totals[j] += c
		}
	}

	meanDepth, _ := stats.Mean(totals)
	if meanDepth <= 0 {
		return nil, fmt.Errorf("count matrix has no reads in any sample")
	}

	factors := make([]float64, nSamples)
	for j, total := range totals {
		if total <= 0 {
			return nil, fmt.Errorf("sample %s has no reads", counts.Samples[j])
		}
		factors[j] = total / meanDepth
	}
	return factors, nil
}
