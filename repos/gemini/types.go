package gemini

import (
	"errors"
	"time"
)

var (
	ErrNoAPIKeys       = errors.New("no gemini api keys configured")
	ErrKeysExhausted   = errors.New("all gemini api keys are cooling down")
	ErrBudgetExceeded  = errors.New("daily budget exceeded")
	ErrRequestLimit    = errors.New("daily request limit reached")
	ErrEmptyCompletion = errors.New("model returned no text")
)

// Request describes one call through the gateway. Mode and the user context
// are part of the cache key, so two users with the same normalized request
// share a cached answer.
type Request struct {
	UserID string
	Prompt string

	// Mode tags what kind of work this is (default, geolocation, analysis,
	// batch). Cost estimation is based on it.
	Mode string

	// Preference picks the model pool: auto, fast, balanced or quality.
	Preference string

	// Optional alignment context. Values are rounded to one decimal before
	// they enter the cache key so close contexts share entries.
	UserContext  map[string]float64
	ContextLabel string

	// PlainText lifts the JSON response constraint for callers that parse a
	// marker format instead.
	PlainText bool

	UseCache bool
}

// Response is the gateway answer, either fresh from the vendor or replayed
// from cache.
type Response struct {
	Text      string
	Model     string
	Cost      float64
	FromCache bool
}

// UsageRecord is one ledger row under users/{uid}/ember_cost_sessions.
type UsageRecord struct {
	Model            string    `firestore:"model"`
	Mode             string    `firestore:"mode"`
	PromptTokens     int       `firestore:"prompt_tokens"`
	CompletionTokens int       `firestore:"completion_tokens"`
	Cost             float64   `firestore:"cost"`
	Day              string    `firestore:"day"`
	Timestamp        time.Time `firestore:"timestamp"`
}

// ModelUsage aggregates ledger rows for a single model.
type ModelUsage struct {
	Requests int     `json:"requests"`
	Tokens   int     `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// UsageStats is the aggregate a user (or the admin surface) sees for a
// period.
type UsageStats struct {
	Period        string                `json:"period"`
	TotalCost     float64               `json:"total_cost"`
	TotalRequests int                   `json:"total_requests"`
	TotalTokens   int                   `json:"total_tokens"`
	ByModel       map[string]ModelUsage `json:"by_model"`
}

// Alert is a persisted alert document.
type Alert struct {
	ID          string    `firestore:"-" json:"id"`
	Rule        string    `firestore:"rule" json:"rule"`
	Metric      string    `firestore:"metric" json:"metric"`
	Value       float64   `firestore:"value" json:"value"`
	Threshold   float64   `firestore:"threshold" json:"threshold"`
	Description string    `firestore:"description" json:"description"`
	UserID      string    `firestore:"user_id,omitempty" json:"user_id,omitempty"`
	Status      string    `firestore:"status" json:"status"`
	CreatedAt   time.Time `firestore:"created_at" json:"created_at"`
}

// CacheStats summarizes cache effectiveness since process start.
type CacheStats struct {
	MemoryEntries int     `json:"memory_entries"`
	Hits          int     `json:"hits"`
	Misses        int     `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
}
