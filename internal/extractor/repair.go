package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"stylemail/internal/model"
)

// decodeFeatureVector turns a raw extractor response into a validated,
// normalized feature vector. The response must be a single JSON object
// carrying exactly the declared metric key set. Malformed payloads go
// through a best-effort repair pipeline, in order:
//
//  1. strict parse of the payload as-is
//  2. structural repair: slice from the first '{' to the last '}' (drops
//     markdown fences and prose the model wrapped around the object)
//  3. truncate to the last complete closing brace and re-attempt
//
// If all three fail, the caller re-requests or gives up.
func decodeFeatureVector(raw []byte) (*model.FeatureVector, error) {
	obj, err := parseObject(raw)
	if err != nil {
		obj, err = parseObject(sliceToBraces(raw))
	}
	if err != nil {
		obj, err = parseTruncated(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("unparseable extractor output: %w", err)
	}

	if err := checkSchema(obj); err != nil {
		return nil, err
	}

	var vec model.FeatureVector
	if err := remarshal(obj, &vec); err != nil {
		return nil, fmt.Errorf("feature vector has wrong value types: %w", err)
	}
	vec.Normalize()
	return &vec, nil
}

// parseObject parses raw as a single JSON object, rejecting payloads whose
// first and last characters are not the object braces.
func parseObject(raw []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return nil, fmt.Errorf("response is not a single JSON object")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// sliceToBraces cuts raw down to the outermost brace pair, if any.
func sliceToBraces(raw []byte) []byte {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil
	}
	return raw[start : end+1]
}

// parseTruncated retries the parse at successively earlier closing braces,
// recovering an object whose tail was cut off mid-stream.
func parseTruncated(raw []byte) (map[string]json.RawMessage, error) {
	start := bytes.IndexByte(raw, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}
	end := len(raw)
	for {
		end = bytes.LastIndexByte(raw[:end], '}')
		if end < start {
			return nil, fmt.Errorf("no complete JSON object in response")
		}
		if obj, err := parseObject(raw[start : end+1]); err == nil {
			return obj, nil
		}
	}
}

// checkSchema verifies the object carries exactly the declared metric keys.
func checkSchema(obj map[string]json.RawMessage) error {
	declared := model.SchemaKeys()
	for key := range obj {
		if !declared[key] {
			return fmt.Errorf("unexpected key %q in extractor output", key)
		}
	}
	for key := range declared {
		if _, ok := obj[key]; !ok {
			return fmt.Errorf("extractor output missing metric %q", key)
		}
	}
	return nil
}

func remarshal(obj map[string]json.RawMessage, dst any) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
