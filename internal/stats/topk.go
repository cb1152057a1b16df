package stats

import (
	"sort"

	"stylemail/internal/model"
)

// DefaultTopK bounds every categorical frequency map.
const DefaultTopK = 12

// UpdateTopK folds one categorical observation into a frequency map, keeping
// at most k entries. An empty value is a no-op: absence of a signal is not a
// value. Truncation is lazy, applied only when an insert pushes the map over
// k; ties are broken lexicographically so the retained set does not depend
// on map iteration order. Returns a new map; the input is never mutated.
func UpdateTopK(m model.FrequencyMap, value string, k int) model.FrequencyMap {
	out := make(model.FrequencyMap, len(m)+1)
	for v, n := range m {
		out[v] = n
	}
	if value == "" {
		return out
	}
	out[value]++
	if len(out) <= k {
		return out
	}

	type entry struct {
		value string
		count int64
	}
	entries := make([]entry, 0, len(out))
	for v, n := range out {
		entries = append(entries, entry{value: v, count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].value < entries[j].value
	})

	trimmed := make(model.FrequencyMap, k)
	for _, e := range entries[:k] {
		trimmed[e.value] = e.count
	}
	return trimmed
}
