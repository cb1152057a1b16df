package model

import "strings"

// Metric names. These form the closed key set of every FeatureVector and of
// every StyleMatrix; the extractor must return exactly these keys.
const (
	MetricSentimentPolarity   = "sentiment_polarity"
	MetricFormalityScore      = "formality_score"
	MetricAvgSentenceLength   = "average_sentence_length"
	MetricExclamationsPer1000 = "exclamations_per_1000_tokens"
	MetricQuestionsPer1000    = "questions_per_1000_tokens"
	MetricEmojiPer1000        = "emoji_per_1000_tokens"
	MetricTokenCount          = "token_count"
	MetricParagraphCount      = "paragraph_count"
	MetricUsesSignoff         = "uses_signoff"
	MetricUsesGreeting        = "uses_greeting"
	MetricGreetingForm        = "greeting_form"
	MetricSignoffForm         = "signoff_form"
	MetricDominantTone        = "dominant_tone"
)

// Range bounds a continuous metric's documented valid values.
type Range struct {
	Min float64
	Max float64
}

// ContinuousMetricRanges maps every continuous metric to its valid range.
// Values outside the range are clamped at the extractor boundary, never
// rejected (these are personalization signals, not correctness-critical).
var ContinuousMetricRanges = map[string]Range{
	MetricSentimentPolarity:   {Min: -1, Max: 1},
	MetricFormalityScore:      {Min: 0, Max: 100},
	MetricAvgSentenceLength:   {Min: 0, Max: 1000},
	MetricExclamationsPer1000: {Min: 0, Max: 1000},
	MetricQuestionsPer1000:    {Min: 0, Max: 1000},
	MetricEmojiPer1000:        {Min: 0, Max: 1000},
}

// CountMetricNames lists every count metric. Presence flags are counts
// constrained to 0/1.
var CountMetricNames = []string{
	MetricTokenCount,
	MetricParagraphCount,
	MetricUsesSignoff,
	MetricUsesGreeting,
}

// CategoricalMetricNames lists every categorical metric.
var CategoricalMetricNames = []string{
	MetricGreetingForm,
	MetricSignoffForm,
	MetricDominantTone,
}

// presenceFlags are count metrics that only carry 0 or 1.
var presenceFlags = map[string]bool{
	MetricUsesSignoff:  true,
	MetricUsesGreeting: true,
}

// SchemaKeys returns the full declared metric key set, used by the extractor
// boundary to verify that a response is schema-complete with no extra keys.
func SchemaKeys() map[string]bool {
	keys := make(map[string]bool, len(ContinuousMetricRanges)+len(CountMetricNames)+len(CategoricalMetricNames))
	for name := range ContinuousMetricRanges {
		keys[name] = true
	}
	for _, name := range CountMetricNames {
		keys[name] = true
	}
	for _, name := range CategoricalMetricNames {
		keys[name] = true
	}
	return keys
}

// FeatureVector is one email's extraction result. Every field is always
// present; a missing signal is a neutral default (0, 0.0 or ""), never an
// omitted key.
type FeatureVector struct {
	SentimentPolarity   float64 `json:"sentiment_polarity"`
	FormalityScore      float64 `json:"formality_score"`
	AvgSentenceLength   float64 `json:"average_sentence_length"`
	ExclamationsPer1000 float64 `json:"exclamations_per_1000_tokens"`
	QuestionsPer1000    float64 `json:"questions_per_1000_tokens"`
	EmojiPer1000        float64 `json:"emoji_per_1000_tokens"`

	TokenCount     int64 `json:"token_count"`
	ParagraphCount int64 `json:"paragraph_count"`
	UsesSignoff    int64 `json:"uses_signoff"`
	UsesGreeting   int64 `json:"uses_greeting"`

	GreetingForm string `json:"greeting_form"`
	SignoffForm  string `json:"signoff_form"`
	DominantTone string `json:"dominant_tone"`
}

func (v *FeatureVector) continuousFields() map[string]*float64 {
	return map[string]*float64{
		MetricSentimentPolarity:   &v.SentimentPolarity,
		MetricFormalityScore:      &v.FormalityScore,
		MetricAvgSentenceLength:   &v.AvgSentenceLength,
		MetricExclamationsPer1000: &v.ExclamationsPer1000,
		MetricQuestionsPer1000:    &v.QuestionsPer1000,
		MetricEmojiPer1000:        &v.EmojiPer1000,
	}
}

func (v *FeatureVector) countFields() map[string]*int64 {
	return map[string]*int64{
		MetricTokenCount:     &v.TokenCount,
		MetricParagraphCount: &v.ParagraphCount,
		MetricUsesSignoff:    &v.UsesSignoff,
		MetricUsesGreeting:   &v.UsesGreeting,
	}
}

func (v *FeatureVector) categoricalFields() map[string]*string {
	return map[string]*string{
		MetricGreetingForm: &v.GreetingForm,
		MetricSignoffForm:  &v.SignoffForm,
		MetricDominantTone: &v.DominantTone,
	}
}

// Continuous returns the continuous metric values keyed by metric name.
func (v *FeatureVector) Continuous() map[string]float64 {
	out := make(map[string]float64, len(ContinuousMetricRanges))
	for name, field := range v.continuousFields() {
		out[name] = *field
	}
	return out
}

// Counts returns the count metric values keyed by metric name.
func (v *FeatureVector) Counts() map[string]int64 {
	out := make(map[string]int64, len(CountMetricNames))
	for name, field := range v.countFields() {
		out[name] = *field
	}
	return out
}

// Categoricals returns the categorical metric values keyed by metric name.
func (v *FeatureVector) Categoricals() map[string]string {
	out := make(map[string]string, len(CategoricalMetricNames))
	for name, field := range v.categoricalFields() {
		out[name] = *field
	}
	return out
}

// Normalize lower-cases and trims every categorical value.
func (v *FeatureVector) Normalize() {
	for _, field := range v.categoricalFields() {
		*field = strings.ToLower(strings.TrimSpace(*field))
	}
}

// Clamp forces every value into its documented range and returns the names
// of the metrics that were adjusted, for boundary logging.
func (v *FeatureVector) Clamp() []string {
	var clamped []string
	for name, field := range v.continuousFields() {
		r := ContinuousMetricRanges[name]
		switch {
		case *field < r.Min:
			*field = r.Min
			clamped = append(clamped, name)
		case *field > r.Max:
			*field = r.Max
			clamped = append(clamped, name)
		}
	}
	for name, field := range v.countFields() {
		if *field < 0 {
			*field = 0
			clamped = append(clamped, name)
		} else if presenceFlags[name] && *field > 1 {
			*field = 1
			clamped = append(clamped, name)
		}
	}
	return clamped
}
