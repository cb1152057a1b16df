package stats

import "stylemail/internal/model"

// NewWelford starts a Welford accumulator from its first observation.
func NewWelford(value float64) model.WelfordState {
	return model.WelfordState{Count: 1, Mean: value, M2: 0}
}

// UpdateWelford folds one observation into the accumulator using Welford's
// single-pass update. The returned Mean equals the arithmetic mean of every
// value folded so far; M2/Count is the population variance if a consumer
// needs it. Numerically stable for arbitrarily long sequences.
func UpdateWelford(s model.WelfordState, value float64) model.WelfordState {
	count := s.Count + 1
	delta := value - s.Mean
	mean := s.Mean + delta/float64(count)
	m2 := s.M2 + delta*(value-mean)
	return model.WelfordState{Count: count, Mean: mean, M2: m2}
}
