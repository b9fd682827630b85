// Package store keeps per-key sliding windows of request timestamps.
package store

import (
	"context"
	"sync"
	"time"

	"spverifier/internal/ratelimit/models"
)

const pruneEvery = 1024

// Window is an in-process sliding-window counter. It is not shared between
// verifier instances.
type Window struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	now     func() time.Time
	calls   int
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

type Option func(*Window)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

func New(opts ...Option) *Window {
	w := &Window{buckets: make(map[string]*slidingWindow), now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Allow records one request for key if it fits in limit.
func (s *Window) Allow(_ context.Context, key string, limit models.Limit) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.calls++
	if s.calls%pruneEvery == 0 {
		s.prune(now)
	}

	sw := s.bucket(key, limit.Window)
	sw.cleanup(now)

	if len(sw.timestamps) < limit.Requests {
		sw.timestamps = append(sw.timestamps, now)
		return &models.Result{
			Allowed:   true,
			Limit:     limit.Requests,
			Remaining: limit.Requests - len(sw.timestamps),
			ResetAt:   sw.timestamps[0].Add(limit.Window),
		}, nil
	}

	resetAt := now.Add(limit.Window)
	if len(sw.timestamps) > 0 {
		resetAt = sw.timestamps[0].Add(limit.Window)
	}
	retry := int(resetAt.Sub(now).Seconds())
	if retry < 1 {
		retry = 1
	}
	return &models.Result{
		Allowed:    false,
		Limit:      limit.Requests,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retry,
	}, nil
}

// Len is the number of tracked keys.
func (s *Window) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// Must be called with s.mu held.
func (s *Window) bucket(key string, window time.Duration) *slidingWindow {
	if sw := s.buckets[key]; sw != nil {
		sw.window = window
		return sw
	}
	sw := &slidingWindow{window: window}
	s.buckets[key] = sw
	return sw
}

// Must be called with s.mu held.
func (s *Window) prune(now time.Time) {
	for key, sw := range s.buckets {
		sw.cleanup(now)
		if len(sw.timestamps) == 0 {
			delete(s.buckets, key)
		}
	}
}
