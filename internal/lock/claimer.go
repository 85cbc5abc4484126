// Package lock provides short-lived exclusive claims on string keys. They
// keep concurrent maintenance ticks from double-firing notices and let the
// webhook drop gateway redeliveries.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Claimer grants at most one holder per key until the claim expires or is released.
type Claimer interface {
	// Claim reports whether the caller now holds key for ttl. The returned
	// token identifies this holder and must be passed to Release.
	Claim(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release drops the claim only while token still holds it. Releasing a
	// claim the caller no longer holds is a no-op.
	Release(ctx context.Context, key, token string) error
}

type memoryClaim struct {
	token   string
	expires time.Time
}

// MemoryClaimer is a process-local Claimer for single-instance deployments and tests.
type MemoryClaimer struct {
	mu     sync.Mutex
	claims map[string]memoryClaim
	now    func() time.Time
}

// NewMemoryClaimer creates an empty MemoryClaimer.
func NewMemoryClaimer() *MemoryClaimer {
	return &MemoryClaimer{claims: make(map[string]memoryClaim), now: time.Now}
}

// Claim implements Claimer.
func (m *MemoryClaimer) Claim(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if held, ok := m.claims[key]; ok && now.Before(held.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	m.claims[key] = memoryClaim{token: token, expires: now.Add(ttl)}
	m.gc(now)
	return token, true, nil
}

// Release implements Claimer.
func (m *MemoryClaimer) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.claims[key]; ok && held.token == token {
		delete(m.claims, key)
	}
	return nil
}

// gc drops expired claims so dedupe keys do not accumulate forever.
func (m *MemoryClaimer) gc(now time.Time) {
	if len(m.claims) < 1024 {
		return
	}
	for k, held := range m.claims {
		if !now.Before(held.expires) {
			delete(m.claims, k)
		}
	}
}
