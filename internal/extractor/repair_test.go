package extractor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload(t *testing.T, mutate func(map[string]any)) []byte {
	t.Helper()
	obj := map[string]any{
		"sentiment_polarity":           0.3,
		"formality_score":              72.0,
		"average_sentence_length":      14.2,
		"exclamations_per_1000_tokens": 2.0,
		"questions_per_1000_tokens":    1.0,
		"emoji_per_1000_tokens":        0.0,
		"token_count":                  312,
		"paragraph_count":              4,
		"uses_signoff":                 1,
		"uses_greeting":                1,
		"greeting_form":                "Hi",
		"signoff_form":                 "best",
		"dominant_tone":                "neutral",
	}
	if mutate != nil {
		mutate(obj)
	}
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	return b
}

func TestDecodeFeatureVector_StrictParse(t *testing.T) {
	vec, err := decodeFeatureVector(validPayload(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 14.2, vec.AvgSentenceLength)
	assert.Equal(t, int64(312), vec.TokenCount)
	assert.Equal(t, "hi", vec.GreetingForm, "categoricals normalized at the boundary")
}

func TestDecodeFeatureVector_RepairsFencedOutput(t *testing.T) {
	raw := []byte("```json\n" + string(validPayload(t, nil)) + "\n```")

	vec, err := decodeFeatureVector(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(4), vec.ParagraphCount)
}

func TestDecodeFeatureVector_RepairsSurroundingProse(t *testing.T) {
	raw := []byte("Here is the analysis you asked for:\n" + string(validPayload(t, nil)) + "\nLet me know if you need anything else.")

	_, err := decodeFeatureVector(raw)
	require.NoError(t, err)
}

func TestDecodeFeatureVector_TruncatedTail(t *testing.T) {
	// a complete object followed by junk that itself ends in '}': the brace
	// slice stays unparseable, truncation to the last complete closing brace
	// must recover the object
	full := string(validPayload(t, nil))
	raw := []byte(full + `, "broken": }`)

	_, err := decodeFeatureVector(raw)
	require.NoError(t, err)
}

func TestDecodeFeatureVector_MissingKey(t *testing.T) {
	raw := validPayload(t, func(obj map[string]any) {
		delete(obj, "greeting_form")
	})

	_, err := decodeFeatureVector(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing metric")
}

func TestDecodeFeatureVector_ExtraKey(t *testing.T) {
	raw := validPayload(t, func(obj map[string]any) {
		obj["reasoning"] = "the user writes informally"
	})

	_, err := decodeFeatureVector(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected key")
}

func TestDecodeFeatureVector_WrongValueType(t *testing.T) {
	raw := validPayload(t, func(obj map[string]any) {
		obj["token_count"] = "lots"
	})

	_, err := decodeFeatureVector(raw)
	require.Error(t, err)
}

func TestDecodeFeatureVector_Garbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose only", "I could not analyze this email."},
		{"array", `[1, 2, 3]`},
		{"open brace only", `{"sentiment_polarity": 0.1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFeatureVector([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseObject_RequiresBraces(t *testing.T) {
	_, err := parseObject([]byte(`"just a string"`))
	assert.Error(t, err)

	_, err = parseObject([]byte(strings.TrimSpace(" {} ")))
	assert.NoError(t, err)
}
