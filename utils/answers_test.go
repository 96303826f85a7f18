// utils/answers_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswersEqual(t *testing.T) {
	tests := []struct {
		name      string
		submitted string
		expected  string
		want      bool
	}{
		{"ExactMatch", "Nevsky Prospekt", "Nevsky Prospekt", true},
		{"CaseInsensitive", "NEVSKY PROSPEKT", "nevsky prospekt", true},
		{"SurroundingWhitespace", "  Nevsky Prospekt ", "Nevsky Prospekt", true},
		{"UnicodeFolding", "STRASSE", "straße", true},
		{"Different", "Palace Square", "Nevsky Prospekt", false},
		{"InnerWhitespaceMatters", "Nevsky  Prospekt", "Nevsky Prospekt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnswersEqual(tt.submitted, tt.expected))
		})
	}
}

func TestOptionSetsEqual(t *testing.T) {
	expected := []string{"Hermitage", "Kunstkamera"}

	assert.True(t, OptionSetsEqual([]string{"kunstkamera", " hermitage "}, expected))
	assert.True(t, OptionSetsEqual([]string{"Hermitage", "Hermitage", "Kunstkamera"}, expected), "duplicates collapse")
	assert.False(t, OptionSetsEqual([]string{"Hermitage"}, expected))
	assert.False(t, OptionSetsEqual([]string{"Hermitage", "Kunstkamera", "Aurora"}, expected))
	assert.False(t, OptionSetsEqual(nil, expected))
	assert.True(t, OptionSetsEqual(nil, nil))
}

func TestSplitOptions(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitOptions("a, b ,c"))
	assert.Equal(t, []string{"solo"}, SplitOptions("solo"))
	assert.Empty(t, SplitOptions(" , ,"))
}
