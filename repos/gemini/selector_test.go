package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickModelPrefersQualityWhenIdle(t *testing.T) {
	model := pickModel("balanced", map[string]int{})
	assert.Equal(t, "gemini-2.5-pro", model,
		"With no load the higher quality weight should win the balanced pool")
}

func TestPickModelRoutesAroundLoad(t *testing.T) {
	// Pro is at 90% capacity, flash idle: flash's headroom beats pro's weight.
	load := map[string]int{"gemini-2.5-pro": 450}
	model := pickModel("balanced", load)
	assert.Equal(t, "gemini-2.5-flash", model)
}

func TestPickModelFallsBackDownTheChain(t *testing.T) {
	// Quality pool fully loaded: quality -> balanced -> fast.
	load := map[string]int{"gemini-2.5-pro": 500}
	model := pickModel("quality", load)
	assert.Equal(t, "gemini-2.5-flash", model)
}

func TestPickModelDefaultsWhenEverythingIsLoaded(t *testing.T) {
	load := map[string]int{
		"gemini-2.5-pro":   500,
		"gemini-2.5-flash": 1000,
	}
	model := pickModel("quality", load)
	assert.Equal(t, defaultModel, model)
}

func TestPickModelUnknownPreference(t *testing.T) {
	model := pickModel("imaginary", map[string]int{})
	assert.Equal(t, defaultModel, model, "Unknown pools resolve to the default model")
}
