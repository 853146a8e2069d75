package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyNormalizesPrompt(t *testing.T) {
	a := cacheKey(Request{Prompt: "  Where IS this? ", Mode: "geolocation"})
	b := cacheKey(Request{Prompt: "where is this?", Mode: "geolocation"})
	assert.Equal(t, a, b, "Case and surrounding whitespace should not change the key")
}

func TestCacheKeyModeSeparatesEntries(t *testing.T) {
	a := cacheKey(Request{Prompt: "where is this?", Mode: "geolocation"})
	b := cacheKey(Request{Prompt: "where is this?", Mode: "analysis"})
	assert.NotEqual(t, a, b, "Different modes must not share cache entries")
}

func TestCacheKeyRoundsContext(t *testing.T) {
	a := cacheKey(Request{
		Prompt:      "hello",
		Mode:        "default",
		UserContext: map[string]float64{"economic": 0.4449, "social": -0.21},
	})
	b := cacheKey(Request{
		Prompt:      "hello",
		Mode:        "default",
		UserContext: map[string]float64{"economic": 0.41, "social": -0.24},
	})
	assert.Equal(t, a, b, "Context values should be rounded to one decimal")

	c := cacheKey(Request{
		Prompt:      "hello",
		Mode:        "default",
		UserContext: map[string]float64{"economic": 0.55, "social": -0.21},
	})
	assert.NotEqual(t, a, c, "A different rounded context is a different key")
}

func TestCacheKeyIgnoresUnknownContextDimensions(t *testing.T) {
	a := cacheKey(Request{
		Prompt:      "hello",
		Mode:        "default",
		UserContext: map[string]float64{"economic": 0.4, "mood": 0.9},
	})
	b := cacheKey(Request{
		Prompt:      "hello",
		Mode:        "default",
		UserContext: map[string]float64{"economic": 0.4},
	})
	assert.Equal(t, a, b, "Only the known alignment dimensions enter the key")
}

func TestCacheKeyLabel(t *testing.T) {
	a := cacheKey(Request{Prompt: "hello", Mode: "default", ContextLabel: "progressive-globalist"})
	b := cacheKey(Request{Prompt: "hello", Mode: "default", ContextLabel: "capitalist-nationalist"})
	assert.NotEqual(t, a, b)
}

func TestCacheStatsHitRate(t *testing.T) {
	c := newResponseCache(nil, 0)

	c.mu.Lock()
	c.hits = 3
	c.misses = 1
	c.mu.Unlock()

	stats := c.stats()
	assert.Equal(t, 3, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.InDelta(t, 0.75, stats.HitRate, 1e-9)
}
