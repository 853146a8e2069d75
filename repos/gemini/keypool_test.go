package gemini

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyPoolRotates(t *testing.T) {
	pool := newKeyPool(3)
	now := time.Now()

	var picked []int
	for i := 0; i < 6; i++ {
		idx, err := pool.pick(now)
		assert.Nil(t, err)
		picked = append(picked, idx)
	}

	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, picked, "Pool should rotate round-robin")
}

func TestKeyPoolSkipsCoolingKeys(t *testing.T) {
	pool := newKeyPool(2)
	now := time.Now()

	pool.coolDown(0, now)

	for i := 0; i < 3; i++ {
		idx, err := pool.pick(now)
		assert.Nil(t, err)
		assert.Equal(t, 1, idx, "Only the warm key should be handed out")
	}

	// After the cooldown passes the key returns to rotation.
	later := now.Add(keyCooldown + time.Second)
	seen := map[int]bool{}
	for i := 0; i < 2; i++ {
		idx, err := pool.pick(later)
		assert.Nil(t, err)
		seen[idx] = true
	}
	assert.True(t, seen[0], "Cooled key should rejoin after the cooldown")
}

func TestKeyPoolExhausted(t *testing.T) {
	pool := newKeyPool(2)
	now := time.Now()

	pool.coolDown(0, now)
	pool.coolDown(1, now)

	_, err := pool.pick(now)
	assert.ErrorIs(t, err, ErrKeysExhausted)
}

func TestKeyPoolEmpty(t *testing.T) {
	pool := newKeyPool(0)

	_, err := pool.pick(time.Now())
	assert.ErrorIs(t, err, ErrNoAPIKeys)
}
