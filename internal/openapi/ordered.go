package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// orderedKeys walks a JSON object's raw bytes token-by-token and returns its
// top-level keys in source order alongside each key's raw value. Plain
// map[string]json.RawMessage unmarshaling loses this order, but spec.md
// §4.B requires path/method/body-property iteration to follow document
// order, so this is the one place that matters.
func orderedKeys(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, fmt.Errorf("openapi: expected JSON object, got %v", tok)
	}

	var keys []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("openapi: expected string key, got %v", keyTok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, nil, fmt.Errorf("openapi: decode value for key %q: %w", key, err)
		}
		keys = append(keys, key)
		values[key] = val
	}
	return keys, values, nil
}
