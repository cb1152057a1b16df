package model

import "time"

// WelfordState holds the sufficient statistics for one continuous metric:
// running count, mean and sum of squared deviations (m2). Variance is
// derivable as m2/count but is never computed here.
type WelfordState struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"`
}

// FrequencyMap counts observations of categorical values. Bounded to the
// top-K entries by the aggregation engine.
type FrequencyMap map[string]int64

// StyleMatrix is the running aggregate over all folded feature vectors for
// one connection. Its key set is fixed to the declared metric schema: every
// continuous metric has a WelfordState, every count metric a running sum and
// every categorical metric a bounded frequency map.
type StyleMatrix struct {
	Continuous  map[string]WelfordState `json:"continuous"`
	Counts      map[string]int64        `json:"counts"`
	Categorical map[string]FrequencyMap `json:"categorical"`
}

// StyleProfile is the persisted aggregate, one row per connection.
// NumMessages always equals the Count of every WelfordState in Style: all
// continuous metrics advance together in one fold.
type StyleProfile struct {
	ConnectionID string      `json:"connection_id"`
	NumMessages  int64       `json:"num_messages"`
	Style        StyleMatrix `json:"style"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Transient marks a profile synthesized at read time from a fallback
	// body. Transient profiles are never written to the store.
	Transient bool `json:"transient,omitempty"`
}
