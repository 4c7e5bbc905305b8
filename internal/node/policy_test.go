package node

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 10 * time.Second}
	rng := rand.New(rand.NewSource(1))

	assert.Equal(t, time.Second, p.Backoff(1, rng))
	assert.Equal(t, 2*time.Second, p.Backoff(2, rng))
	assert.Equal(t, 4*time.Second, p.Backoff(3, rng))
	// attempt 5 would be 16s uncapped, capped to MaxDelay.
	assert.Equal(t, 10*time.Second, p.Backoff(5, rng))
}

func TestRetryPolicyBackoffJitterBounded(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: time.Minute, Jitter: true}
	rng := rand.New(rand.NewSource(42))
	for i := 1; i <= 5; i++ {
		d := p.Backoff(i, rng)
		assert.GreaterOrEqual(t, d, time.Duration(0))
	}
}
