package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "no duplicates", input: []string{"a@x.io", "b@x.io"}, expected: nil},
		{name: "reports once per value", input: []string{"a@x.io", "a@x.io", "a@x.io"}, expected: []string{"a@x.io"}},
		{name: "ignores surrounding whitespace", input: []string{"a@x.io", " a@x.io "}, expected: []string{"a@x.io"}},
		{name: "ignores empties", input: []string{"", "", "b@x.io"}, expected: nil},
		{name: "ordered by second sighting", input: []string{"a", "b", "b", "a"}, expected: []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Duplicates(tt.input))
		})
	}
}
