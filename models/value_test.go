package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferKind(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  Kind
	}{
		{"integers", []string{"1", "22", "-3"}, KindInt},
		{"integers with blanks", []string{"1", "", "3"}, KindInt},
		{"floats", []string{"1.5", "2", "3e2"}, KindFloat},
		{"booleans", []string{"True", "false", "TRUE"}, KindBool},
		{"mixed", []string{"1", "1A"}, KindString},
		{"all missing", []string{"", "NA", "null"}, KindString},
		{"empty column", nil, KindString},
		{"infinity is text", []string{"inf", "1"}, KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferKind(tt.cells))
		})
	}
}

func TestParseValue(t *testing.T) {
	v := ParseValue(" 42", KindInt)
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, " 42", v.Raw())

	v = ParseValue("NaN", KindFloat)
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "", v.Raw())

	v = ParseValue("abc", KindInt)
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "abc", v.Raw())
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{ParseValue("7", KindInt), `7`},
		{ParseValue("2.50", KindFloat), `2.5`},
		{ParseValue("True", KindBool), `true`},
		{ParseValue("", KindInt), `""`},
		{StringValue(`say "hi"`), `"say \"hi\""`},
		{Value{}, `""`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(""))
	assert.True(t, IsMissing("N/A"))
	assert.False(t, IsMissing(" "))
	assert.False(t, IsMissing("1A"))
}
