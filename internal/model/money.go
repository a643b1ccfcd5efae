// Package model defines the entities mirrored from the banking backend.
package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend speaks JSON numbers for money, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount decodes a JSON money value. Numbers and numeric strings are
// accepted; anything else (missing, null, "", "abc") is zero.
func ParseAmount(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
		s = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseAmountPtr is ParseAmount for optional fields: missing or null is nil.
func parseAmountPtr(raw json.RawMessage) *decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	d := ParseAmount(raw)
	return &d
}
