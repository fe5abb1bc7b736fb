// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeFirstJSON finds the first well-formed JSON array or object in
// raw and unmarshals it into out. Backends wrap their answer in prose
// or fenced code blocks often enough that strict decoding is useless:
// scanning candidate start positions and test-decoding each one accepts
// any response that contains the value at all. A substring that decodes
// as JSON but does not fit out's shape is skipped and the scan
// continues.
func decodeFirstJSON(raw string, out any) error {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' && raw[i] != '{' {
			continue
		}
		var value json.RawMessage
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		if err := dec.Decode(&value); err != nil {
			continue
		}
		if err := json.Unmarshal(value, out); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("no decodable JSON value in backend response")
}
