package diary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitdiary/internal/ai"
	"github.com/2beens/fitdiary/internal/telemetry/metrics"
	"github.com/2beens/fitdiary/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	flowSummarize       = "summarize"
	flowRecommendations = "recommendations"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=diary_test

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
	Configured() bool
}

type entriesLoader interface {
	LoadRecentEntries(ctx context.Context, userID string, limit int) ([]Entry, error)
}

type RecommendationOutcome struct {
	Suggestions   []string
	Workouts      []FeaturedWorkout
	Reason        Reason
	Attempts      []ai.Attempt
	Cached        bool
	ContextWindow []ContextDay
	Model         string
	GeneratedAt   time.Time
}

func (o RecommendationOutcome) Degraded() bool {
	return o.Reason != ReasonNone
}

// Service runs diary texts through the generative model. Failures never
// surface as errors, they are turned into fallback content with a Reason.
type Service struct {
	generator      generator
	orchestrator   *ai.Orchestrator
	normalizer     *Normalizer
	entriesLoader  entriesLoader
	cache          *RecommendationsCache
	metricsManager *metrics.Manager
	now            func() time.Time
}

type NewServiceParams struct {
	Generator      generator
	Orchestrator   *ai.Orchestrator
	Normalizer     *Normalizer
	EntriesLoader  entriesLoader
	Cache          *RecommendationsCache
	MetricsManager *metrics.Manager
	Now            func() time.Time
}

func NewService(params NewServiceParams) *Service {
	s := &Service{
		generator:      params.Generator,
		orchestrator:   params.Orchestrator,
		normalizer:     params.Normalizer,
		entriesLoader:  params.EntriesLoader,
		cache:          params.Cache,
		metricsManager: params.MetricsManager,
		now:            params.Now,
	}
	if s.normalizer == nil {
		s.normalizer = NewNormalizer()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) Model() string {
	return s.generator.Model()
}

// Summarize extracts the workout log from diaryText.
func (s *Service) Summarize(ctx context.Context, diaryText, date string) Outcome {
	// an abandoned request does not stop an ongoing retry loop
	ctx, span := tracing.GlobalTracer.Start(context.WithoutCancel(ctx), "service.diary.summarize")
	defer span.End()

	fc := FallbackContext{DiaryText: diaryText, Date: date}
	prompt := BuildSummaryPrompt(diaryText)

	result, err := s.execute(ctx, prompt)
	if err != nil {
		reason := ReasonFromError(err)
		log.Warnf("summarize diary [%s], serving fallback [%s]: %s", date, reason, err)
		s.recordDegraded(flowSummarize, reason)
		span.SetAttributes(attribute.String("reason", string(reason)))
		return Outcome{
			Log:    s.normalizer.DiaryFallback(fc, reason),
			Reason: reason,
		}
	}

	outcome := s.normalizer.NormalizeDiary(result.Response, fc)
	if outcome.Degraded() {
		s.recordDegraded(flowSummarize, outcome.Reason)
		span.SetAttributes(attribute.String("reason", string(outcome.Reason)))
	}
	span.SetAttributes(attribute.Int("workouts", len(outcome.Log.Workouts)))

	return outcome
}

// Recommend suggests the next workouts based on the last ContextWindowDays
// days. When entries is empty, the recent entries of userID are loaded.
func (s *Service) Recommend(ctx context.Context, userID string, entries []Entry) RecommendationOutcome {
	ctx, span := tracing.GlobalTracer.Start(context.WithoutCancel(ctx), "service.diary.recommend")
	defer span.End()

	now := s.now()
	if len(entries) == 0 && userID != "" && s.entriesLoader != nil {
		loaded, err := s.entriesLoader.LoadRecentEntries(ctx, userID, ContextWindowDays)
		if err != nil {
			log.Errorf("load recent entries for user [%s]: %s", userID, err)
		} else {
			entries = loaded
		}
	}

	window := BuildContextWindow(entries, now, ContextWindowDays)
	prompt := BuildRecommendationsPrompt(window)
	outcome := RecommendationOutcome{
		ContextWindow: window,
		Model:         s.generator.Model(),
		GeneratedAt:   now,
	}

	cacheKey := RecommendationsCacheKey(userID, prompt)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			log.Debugf("serving cached recommendations for user [%s]", userID)
			span.SetAttributes(attribute.Bool("cached", true))
			outcome.Suggestions = cached.Suggestions
			outcome.Workouts = cached.FeaturedWorkouts
			outcome.GeneratedAt = cached.GeneratedAt
			outcome.Cached = true
			return outcome
		}
	}

	fc := FallbackContext{Date: now.Format(DateLayout)}
	result, err := s.execute(ctx, prompt)

	var featured FeaturedOutcome
	if err != nil {
		reason := ReasonFromError(err)
		log.Warnf("recommend workouts for user [%s], serving fallback [%s]: %s", userID, reason, err)
		featured = s.normalizer.FeaturedFallback(fc, reason)
		outcome.Attempts = attemptsOf(err)
	} else {
		featured = s.normalizer.NormalizeFeatured(result.Response, fc)
		outcome.Attempts = result.Attempts
	}

	outcome.Suggestions = featured.Suggestions
	outcome.Workouts = featured.Workouts
	outcome.Reason = featured.Reason
	span.SetAttributes(attribute.Int("attempts", len(outcome.Attempts)))

	if outcome.Degraded() {
		s.recordDegraded(flowRecommendations, outcome.Reason)
		span.SetAttributes(attribute.String("reason", string(outcome.Reason)))
		return outcome
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, &cachedRecommendations{
			Suggestions:      outcome.Suggestions,
			FeaturedWorkouts: outcome.Workouts,
			GeneratedAt:      outcome.GeneratedAt,
		})
	}

	return outcome
}

// execute sends prompt through the orchestrator. A generator without
// credentials fails before a rate limiter slot is taken.
func (s *Service) execute(ctx context.Context, prompt string) (*ai.Outcome, error) {
	if !s.generator.Configured() {
		return nil, fmt.Errorf("%w: generative api key not set", ai.ErrConfiguration)
	}
	return s.orchestrator.Execute(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, prompt)
	})
}

func (s *Service) recordDegraded(flow string, reason Reason) {
	if s.metricsManager == nil {
		return
	}
	s.metricsManager.CounterDegradedResults.WithLabelValues(flow, string(reason)).Inc()
}

func attemptsOf(err error) []ai.Attempt {
	var exhausted *ai.ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	return nil
}
