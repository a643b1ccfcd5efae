package model

import (
	"encoding/json"
	"strings"
	"time"
)

// timeLayouts are tried in order when decoding backend timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime decodes a JSON timestamp. RFC 3339 strings and a few common
// zone-less forms are accepted; anything else (missing, null, "", numbers,
// garbage) is the zero time.
func ParseTime(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseTimePtr is ParseTime for optional fields: unusable values are nil.
func parseTimePtr(raw json.RawMessage) *time.Time {
	t := ParseTime(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}
