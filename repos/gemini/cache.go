package gemini

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const (
	cacheCollection = "ember_global_cache"
	defaultCacheTTL = 10 * time.Minute
)

type cachedAnswer struct {
	Answer    string    `firestore:"answer"`
	Model     string    `firestore:"model"`
	CreatedAt time.Time `firestore:"created_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

type memEntry struct {
	answer    cachedAnswer
	expiresAt time.Time
}

// responseCache is a two-level cache: an in-process map in front of the
// shared Firestore collection. The map makes repeat requests on the same
// instance free; the collection makes answers global across instances.
type responseCache struct {
	client *firestore.Client
	ttl    time.Duration

	mu     sync.Mutex
	mem    map[string]memEntry
	hits   int
	misses int
}

func newResponseCache(client *firestore.Client, ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &responseCache{
		client: client,
		ttl:    ttl,
		mem:    make(map[string]memEntry),
	}
}

// Key fields marshal in struct order; the context map marshals with sorted
// keys, so the same normalized request always hashes the same.
type cacheKeyPayload struct {
	Context map[string]any `json:"context"`
	Message string         `json:"message"`
	Mode    string         `json:"mode"`
}

// cacheKey normalizes a request into its cache identity: the prompt is
// lowercased and trimmed, context values rounded to one decimal.
func cacheKey(req Request) string {
	normalizedContext := map[string]any{}
	for _, dim := range []string{"economic", "social", "diplomatic"} {
		if v, ok := req.UserContext[dim]; ok {
			normalizedContext[dim] = math.Round(v*10) / 10
		}
	}
	if req.ContextLabel != "" {
		normalizedContext["label"] = req.ContextLabel
	}

	payload := cacheKeyPayload{
		Context: normalizedContext,
		Message: strings.ToLower(strings.TrimSpace(req.Prompt)),
		Mode:    req.Mode,
	}

	raw, _ := json.Marshal(payload)
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// get is best effort: any Firestore trouble is a miss, never an error.
func (c *responseCache) get(ctx context.Context, key string) (cachedAnswer, bool) {
	now := time.Now()

	c.mu.Lock()
	if entry, ok := c.mem[key]; ok {
		if now.Before(entry.expiresAt) {
			c.hits++
			c.mu.Unlock()
			return entry.answer, true
		}
		delete(c.mem, key)
	}
	c.mu.Unlock()

	// Any Firestore trouble, including NotFound, is just a miss.
	doc, err := c.client.Collection(cacheCollection).Doc(key).Get(ctx)
	if err != nil {
		c.recordMiss()
		return cachedAnswer{}, false
	}

	var entry cachedAnswer
	if err := doc.DataTo(&entry); err != nil {
		c.recordMiss()
		return cachedAnswer{}, false
	}

	if !now.Before(entry.ExpiresAt) {
		// Lazy expiry: drop the stale document on read.
		_, _ = doc.Ref.Delete(ctx)
		c.recordMiss()
		return cachedAnswer{}, false
	}

	c.mu.Lock()
	c.mem[key] = memEntry{answer: entry, expiresAt: entry.ExpiresAt}
	c.hits++
	c.mu.Unlock()
	return entry, true
}

func (c *responseCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *responseCache) set(ctx context.Context, key, text, model string) error {
	now := time.Now()
	entry := cachedAnswer{
		Answer:    text,
		Model:     model,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.mem[key] = memEntry{answer: entry, expiresAt: entry.ExpiresAt}
	c.mu.Unlock()

	_, err := c.client.Collection(cacheCollection).Doc(key).Set(ctx, entry)
	return err
}

// cleanupExpired removes expired documents from the shared collection and
// stale entries from the in-process map. Returns how many documents went.
func (c *responseCache) cleanupExpired(ctx context.Context) (int, error) {
	now := time.Now()

	c.mu.Lock()
	for key, entry := range c.mem {
		if !now.Before(entry.expiresAt) {
			delete(c.mem, key)
		}
	}
	c.mu.Unlock()

	iter := c.client.Collection(cacheCollection).
		Where("expires_at", "<", now).
		Documents(ctx)
	defer iter.Stop()

	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, err
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// clear drops the whole cache, both levels.
func (c *responseCache) clear(ctx context.Context) error {
	c.mu.Lock()
	c.mem = make(map[string]memEntry)
	c.mu.Unlock()

	iter := c.client.Collection(cacheCollection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *responseCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		MemoryEntries: len(c.mem),
		Hits:          c.hits,
		Misses:        c.misses,
		HitRate:       rate,
	}
}
