package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp_OutOfRangeValues(t *testing.T) {
	v := &FeatureVector{
		SentimentPolarity: 1.7,
		FormalityScore:    -3,
		AvgSentenceLength: 40,
		TokenCount:        -5,
		UsesSignoff:       3,
	}

	clamped := v.Clamp()

	assert.Equal(t, 1.0, v.SentimentPolarity)
	assert.Equal(t, 0.0, v.FormalityScore)
	assert.Equal(t, 40.0, v.AvgSentenceLength, "in-range value untouched")
	assert.Equal(t, int64(0), v.TokenCount)
	assert.Equal(t, int64(1), v.UsesSignoff, "presence flag clamped to 0/1")

	assert.ElementsMatch(t, []string{
		MetricSentimentPolarity,
		MetricFormalityScore,
		MetricTokenCount,
		MetricUsesSignoff,
	}, clamped)
}

func TestClamp_InRangeIsUntouched(t *testing.T) {
	v := &FeatureVector{
		SentimentPolarity: -0.5,
		FormalityScore:    80,
		TokenCount:        100,
		UsesGreeting:      1,
	}
	assert.Empty(t, v.Clamp())
}

func TestNormalize_LowercasesAndTrims(t *testing.T) {
	v := &FeatureVector{
		GreetingForm: "  Hi There ",
		SignoffForm:  "BEST",
		DominantTone: "Friendly",
	}
	v.Normalize()

	assert.Equal(t, "hi there", v.GreetingForm)
	assert.Equal(t, "best", v.SignoffForm)
	assert.Equal(t, "friendly", v.DominantTone)
}

func TestSchemaKeys_CoversEveryField(t *testing.T) {
	keys := SchemaKeys()
	want := len(ContinuousMetricRanges) + len(CountMetricNames) + len(CategoricalMetricNames)
	assert.Len(t, keys, want)

	// every accessor key is declared
	v := &FeatureVector{}
	for name := range v.Continuous() {
		assert.True(t, keys[name], "continuous metric %s not declared", name)
	}
	for name := range v.Counts() {
		assert.True(t, keys[name], "count metric %s not declared", name)
	}
	for name := range v.Categoricals() {
		assert.True(t, keys[name], "categorical metric %s not declared", name)
	}
}
