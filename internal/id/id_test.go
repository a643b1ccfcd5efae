package id

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  ID
	}{
		{`"abc-123"`, "abc-123"},
		{`42`, "42"},
		{`"42"`, "42"},
		{`" 7 "`, "7"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var got ID
		require.NoError(t, json.Unmarshal([]byte(tt.input), &got), "input: %s", tt.input)
		assert.Equal(t, tt.want, got, "input: %s", tt.input)
	}
}

func TestUnmarshalJSON_NumberAndStringCompareEqual(t *testing.T) {
	var rec struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 17, "b": "17"}`), &rec))
	assert.Equal(t, rec.A, rec.B)
}

func TestUnmarshalJSON_Errors(t *testing.T) {
	badInputs := []string{`{}`, `[1]`, `true`}
	for _, input := range badInputs {
		var got ID
		assert.Error(t, json.Unmarshal([]byte(input), &got), "expected error for input: %s", input)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(ID("99"))
	require.NoError(t, err)
	assert.Equal(t, `"99"`, string(data))
}

func TestParse(t *testing.T) {
	got, err := Parse("  u-1 ")
	require.NoError(t, err)
	assert.Equal(t, ID("u-1"), got)

	for _, input := range []string{"", "   ", "a/b", "x?y"} {
		_, err := Parse(input)
		assert.Error(t, err, "expected error for input: %q", input)
	}
}
