package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"only whitespace", "   \n\t\n  ", []string{}},
		{"single line", "Hello", []string{"Hello"}},
		{"trims", "  Hi there  \n Second line\t", []string{"Hi there", "Second line"}},
		{"drops blanks", "Hi there\n\n  \nSecond line\n", []string{"Hi there", "Second line"}},
		{"crlf", "one\r\ntwo\r\n", []string{"one", "two"}},
		{"bare cr", "one\rtwo", []string{"one", "two"}},
		{"unicode separators", "one\u2028two\u2029three", []string{"one", "two", "three"}},
		{"inner spaces kept", "a  b\nc", []string{"a  b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"Hi there", "Second line"}, Normalize([]string{"Hi there", "", "  ", "Second line"}))
	assert.Equal(t, []string{}, Normalize(nil))
	assert.Equal(t, []string{}, Normalize([]string{"   ", "\n"}))
}

func TestSplitLinesMatchesNormalizeOfLines(t *testing.T) {
	// Both surfaces must agree on batch size for the same text.
	input := "first\n  \nsecond\r\n\nthird  "
	assert.Equal(t, Normalize([]string{"first", "  ", "second", "", "third  "}), SplitLines(input))
}
