// Package id defines the canonical identifier type used for every backend
// entity. The backend is inconsistent about whether identifiers arrive as
// JSON strings or JSON numbers; ID normalizes both to one string form at
// decode time so the rest of the client compares with plain ==.
package id

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is a backend entity identifier in canonical string form.
type ID string

// Parse normalizes a user-supplied identifier (CLI args, config).
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if strings.ContainsAny(s, "/?#") {
		return "", fmt.Errorf("invalid identifier %q", s)
	}
	return ID(s), nil
}

// String returns the canonical form.
func (i ID) String() string { return string(i) }

// IsZero reports whether the identifier is unset.
func (i ID) IsZero() bool { return i == "" }

// MarshalJSON always emits a JSON string.
func (i ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(i))
}

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (i *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*i = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*i = ID(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decoding id %s: %w", data, err)
		}
		*i = ID(n.String())
		return nil
	}
}
