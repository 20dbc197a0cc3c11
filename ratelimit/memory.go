package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a sliding-window log kept in process memory. Suitable for a single instance.
type Memory struct {
	window time.Duration
	max    int
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemory(window time.Duration, max int) *Memory {
	return &Memory{
		window: window,
		max:    max,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (m *Memory) Allow(ctx context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hits := prune(m.hits[key], now.Add(-m.window))

	if len(hits) >= m.max {
		m.hits[key] = hits
		// With max <= 0 nothing is ever admitted, so there is no oldest hit to wait for.
		retry := m.window
		if len(hits) > 0 {
			retry = hits[0].Add(m.window).Sub(now)
		}
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	hits = append(hits, now)
	m.hits[key] = hits
	return Decision{Allowed: true, Remaining: m.max - len(hits)}, nil
}

// Sweep drops keys with no hits inside the window. Returns the number of keys left.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.window)
	for key, hits := range m.hits {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(m.hits, key)
		} else {
			m.hits[key] = hits
		}
	}
	return len(m.hits)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = make(map[string][]time.Time)
	return nil
}

// prune drops hits at or before cutoff. hits is sorted oldest first.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
