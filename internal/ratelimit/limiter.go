// Package ratelimit counts qualifying events per key inside a trailing time
// window. The in-memory Limiter is the default backend; RedisLimiter shares
// windows between instances.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Policy selects which login attempts count toward a window.
type Policy string

const (
	// PolicyFailures counts only failed logins, keyed by username and client.
	PolicyFailures Policy = "failures"
	// PolicyAllAttempts counts every login attempt, keyed by client only.
	PolicyAllAttempts Policy = "all"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFailures, PolicyAllAttempts:
		return p, nil
	default:
		return "", fmt.Errorf("unknown rate limit policy %q", s)
	}
}

// Decision is the outcome of consulting a window.
type Decision struct {
	Allowed bool
	// Remaining is the number of events the key may still record.
	Remaining int
	// RetryAfter is set on blocked decisions: the time until the oldest
	// event in the window expires.
	RetryAfter time.Duration
}

// Backend is implemented by Limiter and RedisLimiter.
type Backend interface {
	// Allow prunes the window, and records an event only if the key is under
	// its limit. The check and the record happen in one critical section.
	Allow(ctx context.Context, key string) (Decision, error)
	// Release drops the newest event of the key, handing back a slot taken
	// by Allow for an attempt that turned out not to count.
	Release(ctx context.Context, key string) error
}

// Clock returns the current time. Values from time.Now carry a monotonic
// reading, so window arithmetic is immune to wall clock steps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default Clock.
var SystemClock Clock = systemClock{}

// Limiter is an in-memory sliding window limiter. A single mutex guards the
// whole map, which serializes the prune-count-append sequence of every key.
type Limiter struct {
	limit  int
	window time.Duration
	clock  Clock

	mu     sync.Mutex
	events map[string][]time.Time
}

func New(limit int, window time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock
	}
	return &Limiter{
		limit:  limit,
		window: window,
		clock:  clock,
		events: make(map[string][]time.Time),
	}
}

func (l *Limiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	d := l.inspect(key, now)
	if d.Allowed {
		l.events[key] = append(l.events[key], now)
		d.Remaining--
	}
	return d, nil
}

func (l *Limiter) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.prune(key, l.clock.Now())
	switch len(ts) {
	case 0:
	case 1:
		delete(l.events, key)
	default:
		l.events[key] = ts[:len(ts)-1]
	}
	return nil
}

// Sweep prunes every tracked key and drops the empty ones.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for key := range l.events {
		l.prune(key, now)
	}
}

// Len returns the number of keys with at least one event in their window.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Run sweeps the limiter every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// inspect must be called with mu held.
func (l *Limiter) inspect(key string, now time.Time) Decision {
	ts := l.prune(key, now)
	if len(ts) >= l.limit {
		return Decision{
			Allowed:    false,
			RetryAfter: retryAfter(l.window, now, ts),
		}
	}
	return Decision{Allowed: true, Remaining: l.limit - len(ts)}
}

// prune drops the leading timestamps that are not after now-window. Only the
// expired prefix is visited. Keys left empty are removed from the map.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	ts, ok := l.events[key]
	if !ok {
		return nil
	}
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == len(ts) {
		delete(l.events, key)
		return nil
	}
	if i > 0 {
		ts = ts[i:]
		l.events[key] = ts
	}
	return ts
}

func retryAfter(window time.Duration, now time.Time, ts []time.Time) time.Duration {
	if len(ts) == 0 {
		return window
	}
	wait := window - now.Sub(ts[0])
	if wait <= 0 {
		return time.Second
	}
	return wait
}

// RetryAfterSeconds rounds d up to whole seconds, never below one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
