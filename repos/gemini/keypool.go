package gemini

import (
	"sync"
	"time"
)

// keyCooldown is how long a key sits out after the vendor reports quota
// exhaustion for it.
const keyCooldown = 5 * time.Minute

// keyPool hands out API key slots round-robin and keeps quota-limited keys
// out of rotation until their cooldown passes. It is the only module-wide
// shared state besides the response cache, so everything is mutex-guarded.
type keyPool struct {
	mu        sync.Mutex
	size      int
	next      int
	coolUntil []time.Time
}

func newKeyPool(size int) *keyPool {
	return &keyPool{
		size:      size,
		coolUntil: make([]time.Time, size),
	}
}

// pick returns the next usable key slot. ErrKeysExhausted means every key is
// cooling down.
func (p *keyPool) pick(now time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.size == 0 {
		return 0, ErrNoAPIKeys
	}

	for i := 0; i < p.size; i++ {
		idx := (p.next + i) % p.size
		if now.Before(p.coolUntil[idx]) {
			continue
		}
		p.next = (idx + 1) % p.size
		return idx, nil
	}
	return 0, ErrKeysExhausted
}

// coolDown parks a key slot until now+keyCooldown.
func (p *keyPool) coolDown(idx int, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx < 0 || idx >= p.size {
		return
	}
	p.coolUntil[idx] = now.Add(keyCooldown)
}
