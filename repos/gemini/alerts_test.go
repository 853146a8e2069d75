package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestP95SmallSampleUsesMax(t *testing.T) {
	values := []float64{0.2, 3.5, 1.1}
	assert.InDelta(t, 3.5, p95(values), 1e-9, "Under 21 samples the max stands in for p95")
}

func TestP95LargeSample(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1) // 1..100
	}
	assert.InDelta(t, 96, p95(values), 1e-9)
}

func TestP95Empty(t *testing.T) {
	assert.Zero(t, p95(nil))
}

func TestP95DoesNotMutateInput(t *testing.T) {
	values := []float64{5, 1, 3}
	_ = p95(values)
	assert.Equal(t, []float64{5, 1, 3}, values)
}
