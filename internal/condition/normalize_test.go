package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCI(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  float64
	}{
		{"full range", "100-75%", 100},
		{"good range", "75-50%", 75},
		{"poor range", "50-25%", 50},
		{"critical range", "25-0%", 25},
		{"empty", "", 50},
		{"no digits", "unknown", 50},
		{"whitespace only", "   ", 50},
		{"leading text", "approx 80-60%", 80},
		{"single value", "90%", 90},
		{"over 100 clamps", "150%", 100},
		{"digits after dash ignored", "60 - 40%", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCI(tt.label))
		})
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		ci   float64
		want string
	}{
		{100, "Excellent"},
		{90, "Excellent"},
		{89.99, "Good"},
		{75, "Good"},
		{74.5, "Fair"},
		{50, "Fair"},
		{49, "Poor"},
		{25, "Poor"},
		{24.9, "Critical"},
		{0, "Critical"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Rating(tt.ci), "ci=%v", tt.ci)
	}
}

func TestToCIIdempotent(t *testing.T) {
	for _, label := range []string{"100-75%", "", "junk", "42%"} {
		assert.Equal(t, ToCI(label), ToCI(label))
	}
}
