package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "Already Two Decimals", in: 12.34, want: 12.34},
		{name: "Rounds Up", in: 12.345, want: 12.35},
		{name: "Rounds Down", in: 12.344, want: 12.34},
		{name: "Whole Number", in: 100, want: 100},
		{name: "Zero", in: 0, want: 0},
		{name: "Negative", in: -0.005, want: -0.01},
		{name: "Commission Half", in: 33.335 * 0.7, want: 23.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}
