package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	cases := []struct {
		model      string
		prompt     int
		completion int
		want       float64
	}{
		{"gemini-2.5-flash", 1_000_000, 0, 0.075},
		{"gemini-2.5-flash", 0, 1_000_000, 0.3},
		{"gemini-2.5-pro", 1_000_000, 1_000_000, 6.25},
		{"gemini-2.5-flash-preview-0514", 1_000_000, 0, 0.075},
		{"some-unknown-model", 1_000_000, 0, 1.25},
		{"gemini-2.5-flash", 0, 0, 0},
	}

	for _, c := range cases {
		got := CalculateCost(c.model, c.prompt, c.completion)
		assert.InDelta(t, c.want, got, 1e-9, "model %s", c.model)
	}
}

func TestEstimateCost(t *testing.T) {
	// Base estimates scale linearly with prompt length up to 3x.
	assert.InDelta(t, 0.0015, EstimateCost("default", 100), 1e-9)
	assert.InDelta(t, 0.0045, EstimateCost("default", 300), 1e-9)
	assert.InDelta(t, 0.0045, EstimateCost("default", 5000), 1e-9, "Length factor caps at 3x")
	assert.InDelta(t, 0.00075, EstimateCost("default", 50), 1e-9)

	assert.InDelta(t, 0.0015, EstimateCost("geolocation", 100), 1e-9)
	assert.InDelta(t, 0.0045, EstimateCost("analysis", 100), 1e-9)
	assert.InDelta(t, 0.0002, EstimateCost("batch", 100), 1e-9)
	assert.InDelta(t, 0.001, EstimateCost("someting-new", 100), 1e-9)
}
