// Package stats implements the incremental style-aggregation engine: Welford
// running statistics for continuous metrics, running sums for count metrics
// and bounded top-K frequency maps for categorical metrics. Everything here
// is pure; persistence and retry live in the service layer.
package stats

import "stylemail/internal/model"

// Bootstrap builds a fresh style matrix from the very first feature vector
// folded for a connection. Every WelfordState starts at count 1, every sum
// at the vector's value, and every non-empty categorical value at count 1.
func Bootstrap(v *model.FeatureVector) model.StyleMatrix {
	m := model.StyleMatrix{
		Continuous:  make(map[string]model.WelfordState, len(model.ContinuousMetricRanges)),
		Counts:      make(map[string]int64, len(model.CountMetricNames)),
		Categorical: make(map[string]model.FrequencyMap, len(model.CategoricalMetricNames)),
	}
	for name, value := range v.Continuous() {
		m.Continuous[name] = NewWelford(value)
	}
	for name, value := range v.Counts() {
		m.Counts[name] = value
	}
	for name, value := range v.Categoricals() {
		freq := model.FrequencyMap{}
		if value != "" {
			freq[value] = 1
		}
		m.Categorical[name] = freq
	}
	return m
}

// Merge folds one feature vector into an existing style matrix and returns
// the successor matrix. Pure: the input matrix is left untouched, and the
// same inputs always produce the same output. All continuous metrics are
// updated in the same fold so their counts stay in lockstep, and the key set
// of the result is always the declared metric schema.
func Merge(existing model.StyleMatrix, v *model.FeatureVector) model.StyleMatrix {
	next := model.StyleMatrix{
		Continuous:  make(map[string]model.WelfordState, len(model.ContinuousMetricRanges)),
		Counts:      make(map[string]int64, len(model.CountMetricNames)),
		Categorical: make(map[string]model.FrequencyMap, len(model.CategoricalMetricNames)),
	}
	for name, value := range v.Continuous() {
		next.Continuous[name] = UpdateWelford(existing.Continuous[name], value)
	}
	for name, value := range v.Counts() {
		next.Counts[name] = existing.Counts[name] + value
	}
	for name, value := range v.Categoricals() {
		next.Categorical[name] = UpdateTopK(existing.Categorical[name], value, DefaultTopK)
	}
	return next
}
