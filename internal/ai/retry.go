package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitdiary/internal/telemetry/metrics"
	"github.com/2beens/fitdiary/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Policy struct {
	MaxAttempts        int
	BaseDelay          time.Duration
	RateLimitBaseDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:        3,
		BaseDelay:          time.Second,
		RateLimitBaseDelay: 5 * time.Second,
	}
}

type State int

const (
	StateIdle State = iota
	StateAttempting
	StateBackoff
	StateSuccess
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSuccess:
		return "success"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (p Policy) BaseDelayFor(kind ErrorKind) time.Duration {
	if kind == KindRateLimited {
		return p.RateLimitBaseDelay
	}
	return p.BaseDelay
}

// Next is the transition taken after the zero based attempt attemptIndex
// failed with kind. The returned delay is only meaningful for StateBackoff.
func (p Policy) Next(attemptIndex int, kind ErrorKind) (State, time.Duration) {
	if attemptIndex >= p.MaxAttempts-1 {
		return StateExhausted, 0
	}
	return StateBackoff, p.BaseDelayFor(kind) * time.Duration(1<<attemptIndex)
}

// Attempt describes one call made by the Orchestrator.
type Attempt struct {
	Number int
	// Kind is empty for the successful attempt
	Kind            ErrorKind
	Error           string
	DelayBeforeNext time.Duration
}

func (a Attempt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number            int       `json:"number"`
		Kind              ErrorKind `json:"kind,omitempty"`
		Error             string    `json:"error,omitempty"`
		DelayBeforeNextMs int64     `json:"delayBeforeNextMs"`
	}{
		Number:            a.Number,
		Kind:              a.Kind,
		Error:             a.Error,
		DelayBeforeNextMs: a.DelayBeforeNext.Milliseconds(),
	})
}

type Outcome struct {
	Response string
	Attempts []Attempt
}

type Call func(ctx context.Context) (string, error)

// Orchestrator runs generative api calls through the shared RateLimiter,
// retrying classified failures with exponential backoff.
type Orchestrator struct {
	limiter        *RateLimiter
	policy         Policy
	metricsManager *metrics.Manager
	sleep          func(ctx context.Context, d time.Duration) error
}

type OrchestratorOption func(*Orchestrator)

// WithSleep replaces the backoff wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

func NewOrchestrator(
	limiter *RateLimiter,
	policy Policy,
	metricsManager *metrics.Manager,
	opts ...OrchestratorOption,
) *Orchestrator {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	o := &Orchestrator{
		limiter:        limiter,
		policy:         policy,
		metricsManager: metricsManager,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Limiter() *RateLimiter {
	return o.limiter
}

// Execute runs call until it succeeds or the policy is exhausted.
// Configuration and malformed response errors are returned without retrying.
func (o *Orchestrator) Execute(ctx context.Context, call Call) (_ *Outcome, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "ai.orchestrator.execute")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	outcome := &Outcome{}
	for attemptIndex := 0; ; attemptIndex++ {
		if err := o.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}

		attempt := Attempt{Number: attemptIndex + 1}
		log.Tracef("ai call attempt %d/%d: %s", attempt.Number, o.policy.MaxAttempts, StateAttempting)
		start := time.Now()
		response, callErr := call(ctx)
		o.observeCallDuration(time.Since(start))

		if callErr == nil {
			o.limiter.RecordRequest()
			o.recordOutcome(StateSuccess.String())
			outcome.Attempts = append(outcome.Attempts, attempt)
			outcome.Response = response
			span.SetAttributes(attribute.Int("ai.attempts", attempt.Number))
			return outcome, nil
		}

		switch {
		case errors.Is(callErr, ErrConfiguration):
			o.limiter.Release()
			o.recordOutcome("configuration_error")
			return nil, callErr
		case errors.Is(callErr, ErrMalformedResponse):
			// the api answered, only the payload was unusable
			o.limiter.RecordRequest()
			o.recordOutcome("malformed_response")
			return nil, callErr
		}

		kind := ClassifyError(callErr)
		o.limiter.RecordError(kind)
		o.recordFailure(kind)

		next, delay := o.policy.Next(attemptIndex, kind)
		attempt.Kind = kind
		attempt.Error = callErr.Error()
		attempt.DelayBeforeNext = delay
		outcome.Attempts = append(outcome.Attempts, attempt)

		if next == StateExhausted {
			log.Errorf("ai call exhausted after %d attempts [%s]: %s", attempt.Number, kind, callErr)
			o.recordOutcome(StateExhausted.String())
			span.SetAttributes(attribute.Int("ai.attempts", attempt.Number))
			return nil, &ExhaustedError{
				Kind:     kind,
				Attempts: outcome.Attempts,
				Err:      callErr,
			}
		}

		log.Warnf(
			"ai call attempt %d/%d failed [%s], retrying in %s: %s",
			attempt.Number, o.policy.MaxAttempts, kind, delay, callErr,
		)
		if err := o.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("ai call backoff: %w", err)
		}
	}
}

func (o *Orchestrator) observeCallDuration(d time.Duration) {
	if o.metricsManager == nil {
		return
	}
	o.metricsManager.HistAICallDuration.Observe(d.Seconds())
}

func (o *Orchestrator) recordOutcome(outcome string) {
	if o.metricsManager == nil {
		return
	}
	o.metricsManager.CounterAICalls.WithLabelValues(outcome).Inc()
	o.metricsManager.GaugeAIAdaptiveDelay.Set(o.limiter.AdaptiveDelay().Seconds())
}

func (o *Orchestrator) recordFailure(kind ErrorKind) {
	if o.metricsManager == nil {
		return
	}
	o.metricsManager.CounterAIRetries.WithLabelValues(string(kind)).Inc()
	o.metricsManager.GaugeAIAdaptiveDelay.Set(o.limiter.AdaptiveDelay().Seconds())
}
