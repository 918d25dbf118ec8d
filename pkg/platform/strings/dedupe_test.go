package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single broker",
			input:    []string{"localhost:9092"},
			expected: []string{"localhost:9092"},
		},
		{
			name:     "trims whitespace around entries",
			input:    []string{"  kafka-1:9092  ", "kafka-2:9092 "},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "drops repeated brokers preserving order",
			input:    []string{"kafka-1:9092", "kafka-2:9092", "kafka-1:9092"},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "drops blanks left by trailing commas",
			input:    []string{"kafka-1:9092", "", "  "},
			expected: []string{"kafka-1:9092"},
		},
		{
			name:     "case is significant",
			input:    []string{"Face", "face"},
			expected: []string{"Face", "face"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "folds method names to one casing",
			input:    []string{"Face", "face", "FACE"},
			expected: []string{"face"},
		},
		{
			name:     "trims then folds",
			input:    []string{"  FACE ", "pin", "Face", "PIN"},
			expected: []string{"face", "pin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
