package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{2_300_000_000, "2.3B"},
		{1_000_000_000, "1.0B"},
		{1_000_000, "1.0M"},
		{999_999, "1000.0K"},
		{1_500, "1.5K"},
		{1_000, "1.0K"},
		{999, "999"},
		{42, "42"},
		{0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Number(tt.in))
		})
	}
}
