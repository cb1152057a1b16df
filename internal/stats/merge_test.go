package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylemail/internal/model"
)

func sampleVector(avgSentenceLength float64, greeting string) *model.FeatureVector {
	return &model.FeatureVector{
		SentimentPolarity:   0.2,
		FormalityScore:      61,
		AvgSentenceLength:   avgSentenceLength,
		ExclamationsPer1000: 1.5,
		QuestionsPer1000:    3,
		EmojiPer1000:        0,
		TokenCount:          240,
		ParagraphCount:      3,
		UsesSignoff:         1,
		UsesGreeting:        1,
		GreetingForm:        greeting,
		SignoffForm:         "best",
		DominantTone:        "friendly",
	}
}

func TestBootstrap_FirstVector(t *testing.T) {
	m := Bootstrap(sampleVector(10, "hi"))

	state := m.Continuous[model.MetricAvgSentenceLength]
	assert.Equal(t, model.WelfordState{Count: 1, Mean: 10, M2: 0}, state)

	assert.Equal(t, int64(240), m.Counts[model.MetricTokenCount])
	assert.Equal(t, model.FrequencyMap{"hi": 1}, m.Categorical[model.MetricGreetingForm])
}

func TestBootstrap_EmptyCategoricalGetsEmptyMap(t *testing.T) {
	m := Bootstrap(sampleVector(10, ""))

	freq, ok := m.Categorical[model.MetricGreetingForm]
	require.True(t, ok, "greeting_form key must exist even when empty")
	assert.Empty(t, freq)
}

func TestMerge_TwoVectors(t *testing.T) {
	// bootstrap with 10, merge 20: mean 15, m2 50
	m := Bootstrap(sampleVector(10, "hi"))
	m = Merge(m, sampleVector(20, "hi"))

	state := m.Continuous[model.MetricAvgSentenceLength]
	assert.Equal(t, int64(2), state.Count)
	assert.InDelta(t, 15, state.Mean, 1e-9)
	assert.InDelta(t, 50, state.M2, 1e-9)

	assert.Equal(t, int64(480), m.Counts[model.MetricTokenCount])
	assert.Equal(t, model.FrequencyMap{"hi": 2}, m.Categorical[model.MetricGreetingForm])
}

func TestMerge_LockstepCounts(t *testing.T) {
	m := Bootstrap(sampleVector(10, "hi"))
	for i := 0; i < 7; i++ {
		m = Merge(m, sampleVector(float64(10+i), "hello"))
	}

	for name, state := range m.Continuous {
		if state.Count != 8 {
			t.Errorf("metric %s count = %d, want 8 (lockstep)", name, state.Count)
		}
	}
}

func TestMerge_FixedKeySet(t *testing.T) {
	m := Bootstrap(sampleVector(10, "hi"))
	m = Merge(m, sampleVector(12, "hey"))

	assert.Len(t, m.Continuous, len(model.ContinuousMetricRanges))
	assert.Len(t, m.Counts, len(model.CountMetricNames))
	assert.Len(t, m.Categorical, len(model.CategoricalMetricNames))
}

func TestMerge_PureFunction(t *testing.T) {
	m := Bootstrap(sampleVector(10, "hi"))
	before, err := json.Marshal(m)
	require.NoError(t, err)

	next := Merge(m, sampleVector(20, "hello"))
	again := Merge(m, sampleVector(20, "hello"))

	after, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after), "Merge must not mutate its input")
	assert.Equal(t, next, again, "Merge must be deterministic")
}

func TestMerge_BatchEquivalence(t *testing.T) {
	values := []float64{10, 20, 7.5, 33, 14, 14, 2}

	m := Bootstrap(sampleVector(values[0], "hi"))
	for _, v := range values[1:] {
		m = Merge(m, sampleVector(v, "hi"))
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	batchMean := sum / float64(len(values))

	state := m.Continuous[model.MetricAvgSentenceLength]
	assert.Equal(t, int64(len(values)), state.Count)
	if math.Abs(state.Mean-batchMean) > 1e-9 {
		t.Errorf("incremental mean %v differs from batch mean %v", state.Mean, batchMean)
	}
}
