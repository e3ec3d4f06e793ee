package ai

import (
	"context"
	"sync"
	"time"
)

type RateLimiterConfig struct {
	MaxRequestsPerMinute int
	Window               time.Duration
	BaseMinDelay         time.Duration
	MaxAdaptiveDelay     time.Duration
	ErrorTrackingWindow  time.Duration
	// DecayFactor shrinks the adaptive delay after each successful request
	DecayFactor float64
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxRequestsPerMinute: 15,
		Window:               time.Minute,
		BaseMinDelay:         4 * time.Second,
		MaxAdaptiveDelay:     30 * time.Second,
		ErrorTrackingWindow:  5 * time.Minute,
		DecayFactor:          0.9,
	}
}

func (c RateLimiterConfig) withDefaults() RateLimiterConfig {
	def := DefaultRateLimiterConfig()
	if c.MaxRequestsPerMinute <= 0 {
		c.MaxRequestsPerMinute = def.MaxRequestsPerMinute
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.BaseMinDelay <= 0 {
		c.BaseMinDelay = def.BaseMinDelay
	}
	if c.MaxAdaptiveDelay <= 0 {
		c.MaxAdaptiveDelay = def.MaxAdaptiveDelay
	}
	if c.MaxAdaptiveDelay < c.BaseMinDelay {
		c.MaxAdaptiveDelay = c.BaseMinDelay
	}
	if c.ErrorTrackingWindow <= 0 {
		c.ErrorTrackingWindow = def.ErrorTrackingWindow
	}
	if c.DecayFactor <= 0 || c.DecayFactor >= 1 {
		c.DecayFactor = def.DecayFactor
	}
	return c
}

// inflation factors applied to the adaptive delay per error kind
var errorDelayMultiplier = map[ErrorKind]float64{
	KindRateLimited:        2,
	KindServiceUnavailable: 1.5,
	KindOther:              1.2,
}

type errorRecord struct {
	at   time.Time
	kind ErrorKind
}

// RateLimitStatus is a point in time snapshot of the limiter.
type RateLimitStatus struct {
	RequestCount         int   `json:"requestCount"`
	MaxRequestsPerMinute int   `json:"maxRequestsPerMinute"`
	InFlight             int   `json:"inFlight"`
	CanMakeRequest       bool  `json:"canMakeRequest"`
	WaitTimeMs           int64 `json:"waitTimeMs"`
	AdaptiveDelayMs      int64 `json:"adaptiveDelayMs"`
	RecentErrors         int   `json:"recentErrors"`
	WindowResetsInMs     int64 `json:"windowResetsInMs"`
}

// RateLimiter throttles outbound generative api calls. It combines a fixed
// per-window quota with a minimum spacing between requests that grows on
// errors and decays back to the base spacing on successes.
// It is safe for concurrent use.
type RateLimiter struct {
	mu  sync.Mutex
	cfg RateLimiterConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	lastRequest   time.Time
	requestCount  int
	reserved      int
	windowStart   time.Time
	adaptiveDelay time.Duration
	recentErrors  []errorRecord
}

type RateLimiterOption func(*RateLimiter)

func WithClock(now func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.now = now
	}
}

// WithLimiterSleep replaces the timer based wait used by Acquire.
func WithLimiterSleep(sleep func(ctx context.Context, d time.Duration) error) RateLimiterOption {
	return func(r *RateLimiter) {
		r.sleep = sleep
	}
}

func NewRateLimiter(cfg RateLimiterConfig, opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.windowStart = r.now()
	r.adaptiveDelay = r.cfg.BaseMinDelay
	return r
}

// CanMakeRequest reports whether a request would be allowed right now.
// It does not claim a slot, use Acquire for that.
func (r *RateLimiter) CanMakeRequest() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.rollWindowLocked(now)
	return r.waitLocked(now, r.requestCount, r.windowStart) == 0
}

// WaitTime returns how long a caller has to wait before a request is allowed.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.rollWindowLocked(now)
	return r.waitLocked(now, r.requestCount, r.windowStart)
}

// Acquire blocks until a request is allowed and claims the slot for the caller.
// The claim must be settled with RecordRequest, RecordError or Release.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		r.rollWindowLocked(now)
		wait := r.waitLocked(now, r.requestCount, r.windowStart)
		if wait == 0 {
			r.reserved++
			r.lastRequest = now
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		// another goroutine may claim the slot meanwhile, so check again after waiting
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Release gives back a slot claimed by Acquire without counting it as a request.
func (r *RateLimiter) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settleReservationLocked()
}

func (r *RateLimiter) RecordRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.rollWindowLocked(now)
	r.settleReservationLocked()
	r.requestCount++
	r.lastRequest = now
	r.adaptiveDelay = r.clampDelay(scaleDuration(r.adaptiveDelay, r.cfg.DecayFactor))
}

func (r *RateLimiter) RecordError(kind ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.settleReservationLocked()
	r.recentErrors = append(r.recentErrors, errorRecord{at: now, kind: kind})
	r.pruneErrorsLocked(now)

	multiplier, ok := errorDelayMultiplier[kind]
	if !ok {
		multiplier = errorDelayMultiplier[KindOther]
	}
	r.adaptiveDelay = r.clampDelay(scaleDuration(r.adaptiveDelay, multiplier))
}

func (r *RateLimiter) AdaptiveDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adaptiveDelay
}

// Status returns a snapshot of the limiter state. It mutates nothing.
func (r *RateLimiter) Status() RateLimitStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	count, windowStart := r.requestCount, r.windowStart
	if now.Sub(windowStart) >= r.cfg.Window {
		count, windowStart = 0, now
	}

	recentErrors := 0
	for _, e := range r.recentErrors {
		if now.Sub(e.at) < r.cfg.ErrorTrackingWindow {
			recentErrors++
		}
	}

	wait := r.waitLocked(now, count, windowStart)
	return RateLimitStatus{
		RequestCount:         count,
		MaxRequestsPerMinute: r.cfg.MaxRequestsPerMinute,
		InFlight:             r.reserved,
		CanMakeRequest:       wait == 0,
		WaitTimeMs:           wait.Milliseconds(),
		AdaptiveDelayMs:      r.adaptiveDelay.Milliseconds(),
		RecentErrors:         recentErrors,
		WindowResetsInMs:     windowStart.Add(r.cfg.Window).Sub(now).Milliseconds(),
	}
}

// Reset brings the limiter back to its initial state.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRequest = time.Time{}
	r.requestCount = 0
	r.reserved = 0
	r.windowStart = r.now()
	r.adaptiveDelay = r.cfg.BaseMinDelay
	r.recentErrors = nil
}

func (r *RateLimiter) rollWindowLocked(now time.Time) {
	if now.Sub(r.windowStart) >= r.cfg.Window {
		r.windowStart = now
		r.requestCount = 0
	}
}

func (r *RateLimiter) waitLocked(now time.Time, count int, windowStart time.Time) time.Duration {
	// in flight requests will be counted once they settle
	if count+r.reserved >= r.cfg.MaxRequestsPerMinute {
		if wait := windowStart.Add(r.cfg.Window).Sub(now); wait > 0 {
			return wait
		}
		return r.cfg.Window
	}

	if r.lastRequest.IsZero() {
		return 0
	}
	interval := max(r.cfg.BaseMinDelay, r.adaptiveDelay)
	if elapsed := now.Sub(r.lastRequest); elapsed < interval {
		return interval - elapsed
	}
	return 0
}

func (r *RateLimiter) settleReservationLocked() {
	if r.reserved > 0 {
		r.reserved--
	}
}

func (r *RateLimiter) pruneErrorsLocked(now time.Time) {
	kept := r.recentErrors[:0]
	for _, e := range r.recentErrors {
		if now.Sub(e.at) < r.cfg.ErrorTrackingWindow {
			kept = append(kept, e)
		}
	}
	r.recentErrors = kept
}

func (r *RateLimiter) clampDelay(d time.Duration) time.Duration {
	return min(max(d, r.cfg.BaseMinDelay), r.cfg.MaxAdaptiveDelay)
}

func scaleDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
