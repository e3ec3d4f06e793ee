package diary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitdiary/internal/ai"
	"github.com/2beens/fitdiary/internal/auth"
	"github.com/2beens/fitdiary/internal/middleware"
	"github.com/2beens/fitdiary/internal/telemetry/metrics"
	"github.com/2beens/fitdiary/internal/telemetry/tracing"
	"github.com/2beens/fitdiary/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxRequestBodyBytes = 1 << 20
	maxDiaryTextLength  = 10000
	maxDiaryEntries     = 10
	defaultRecentLogs   = 20
	maxRecentLogs       = 100
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=diary_test

type diaryService interface {
	Summarize(ctx context.Context, diaryText, date string) Outcome
	Recommend(ctx context.Context, userID string, entries []Entry) RecommendationOutcome
}

type logStore interface {
	Save(ctx context.Context, userID string, log *DiaryLogResult) (bool, error)
	RecentLogs(ctx context.Context, userID string, limit int) ([]*SavedLog, error)
}

type limiterStatus interface {
	Status() ai.RateLimitStatus
}

type Handler struct {
	service        diaryService
	store          logStore
	limiter        limiterStatus
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(
	service diaryService,
	store logStore,
	limiter limiterStatus,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		service:        service,
		store:          store,
		limiter:        limiter,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// SetupRoutes registers the diary and ai status routes. Diary routes are
// rate limited per client.
func (h *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	mainRouter.HandleFunc("/ai/status", h.HandleAIStatus).Methods("GET", "OPTIONS").Name("ai-status")

	diaryRouter := mainRouter.PathPrefix("/diary").Subrouter()
	diaryRouter.HandleFunc("/summarize", h.HandleSummarize).Methods("POST", "OPTIONS").Name("diary-summarize")
	diaryRouter.HandleFunc("/recommendations", h.HandleRecommendations).Methods("POST", "OPTIONS").Name("diary-recommendations")
	diaryRouter.HandleFunc("/logs/{userId}", h.HandleRecentLogs).Methods("GET", "OPTIONS").Name("diary-logs")
	diaryRouter.Use(middleware.RateLimit(rateLimiter, "diary", allowedPerMin, h.metricsManager))
}

type summarizeRequest struct {
	DiaryText string `json:"diaryText"`
	LogDate   string `json:"logDate"`
	UserID    string `json:"userId"`
}

type summarizeResponse struct {
	LogData  *DiaryLogResult `json:"logData"`
	Degraded bool            `json:"degraded"`
	Reason   Reason          `json:"reason,omitempty"`
	Message  string          `json:"message,omitempty"`
	Saved    bool            `json:"saved"`
}

type recommendationsRequest struct {
	UserID       string  `json:"userId"`
	DiaryEntries []Entry `json:"diaryEntries"`
}

type recommendationsDebug struct {
	Attempts    []ai.Attempt `json:"attempts"`
	Reason      Reason       `json:"reason,omitempty"`
	Cached      bool         `json:"cached"`
	ContextDays int          `json:"contextDays"`
}

type recommendationsMeta struct {
	Model         string       `json:"model"`
	GeneratedAt   time.Time    `json:"generatedAt"`
	ContextWindow []ContextDay `json:"contextWindow"`
}

type recommendationsResponse struct {
	Success          bool                 `json:"success"`
	Suggestions      []string             `json:"suggestions"`
	FeaturedWorkouts []FeaturedWorkout    `json:"featuredWorkouts"`
	Debug            recommendationsDebug `json:"debug"`
	Meta             recommendationsMeta  `json:"meta"`
}

func (h *Handler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.summarize")
	defer span.End()

	var req summarizeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		log.Errorf("summarize diary, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}

	req.DiaryText = strings.TrimSpace(req.DiaryText)
	if req.DiaryText == "" {
		http.Error(w, "error, diary text is required", http.StatusBadRequest)
		return
	}
	if len(req.DiaryText) > maxDiaryTextLength {
		http.Error(w, "error, diary text too long", http.StatusBadRequest)
		return
	}

	logDate, err := h.parseLogDate(req.LogDate)
	if err != nil {
		http.Error(w, "error, invalid log date", http.StatusBadRequest)
		return
	}

	// saving a log needs the session of the same user
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID != "" && !requireSessionUser(w, r, req.UserID) {
		return
	}

	outcome := h.service.Summarize(ctx, req.DiaryText, logDate)
	span.SetAttributes(attribute.String("reason", string(outcome.Reason)))

	// the diary text is saved even when ai enrichment failed
	saved := false
	if req.UserID != "" && h.store != nil {
		saved, err = h.store.Save(ctx, req.UserID, outcome.Log)
		if err != nil {
			log.Errorf("save diary log for user [%s]: %s", req.UserID, err)
		} else if saved && h.metricsManager != nil {
			h.metricsManager.CounterDiaryLogsSaved.Inc()
		}
	}

	pkg.WriteJSONResponse(w, summarizeResponse{
		LogData:  outcome.Log,
		Degraded: outcome.Degraded(),
		Reason:   outcome.Reason,
		Message:  reasonMessage(outcome.Reason),
		Saved:    saved,
	}, statusForReason(outcome.Reason))
}

func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.recommendations")
	defer span.End()

	var req recommendationsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		log.Errorf("recommendations, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" && len(req.DiaryEntries) == 0 {
		http.Error(w, "error, user id or diary entries required", http.StatusBadRequest)
		return
	}
	if len(req.DiaryEntries) > maxDiaryEntries {
		http.Error(w, "error, too many diary entries", http.StatusBadRequest)
		return
	}
	// without entries in the request, the stored entries of the user are read
	if len(req.DiaryEntries) == 0 && !requireSessionUser(w, r, req.UserID) {
		return
	}

	outcome := h.service.Recommend(ctx, req.UserID, req.DiaryEntries)
	span.SetAttributes(attribute.Bool("cached", outcome.Cached))

	attempts := outcome.Attempts
	if attempts == nil {
		attempts = []ai.Attempt{}
	}
	pkg.WriteJSONResponse(w, recommendationsResponse{
		Success:          !outcome.Degraded(),
		Suggestions:      outcome.Suggestions,
		FeaturedWorkouts: outcome.Workouts,
		Debug: recommendationsDebug{
			Attempts:    attempts,
			Reason:      outcome.Reason,
			Cached:      outcome.Cached,
			ContextDays: len(outcome.ContextWindow),
		},
		Meta: recommendationsMeta{
			Model:         outcome.Model,
			GeneratedAt:   outcome.GeneratedAt,
			ContextWindow: outcome.ContextWindow,
		},
	}, http.StatusOK)
}

func (h *Handler) HandleRecentLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.logs")
	defer span.End()

	userID := mux.Vars(r)["userId"]
	if userID == "" {
		http.Error(w, "error, user id missing", http.StatusBadRequest)
		return
	}
	if !requireSessionUser(w, r, userID) {
		return
	}

	limit := defaultRecentLogs
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxRecentLogs)
	}

	logs, err := h.store.RecentLogs(ctx, userID, limit)
	if err != nil {
		log.Errorf("get recent logs for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to get diary logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*SavedLog{}
	}

	pkg.WriteJSONResponse(w, logs, http.StatusOK)
}

func (h *Handler) HandleAIStatus(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.ai.status")
	defer span.End()

	pkg.WriteJSONResponse(w, h.limiter.Status(), http.StatusOK)
}

// requireSessionUser checks that the request is authenticated as userID and
// writes 401 or 403 otherwise.
func requireSessionUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	sessionUser, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return false
	}
	if sessionUser != userID {
		log.Warnf("session user [%s] tried to access diary of user [%s]", sessionUser, userID)
		http.Error(w, "no can do", http.StatusForbidden)
		return false
	}
	return true
}

// parseLogDate defaults an empty date to today.
func (h *Handler) parseLogDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return h.now().Format(DateLayout), nil
	}
	// full timestamps are accepted, only the day is kept
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format(DateLayout), nil
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		return errors.New("invalid content type")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func statusForReason(reason Reason) int {
	switch reason {
	case ReasonConfiguration:
		return http.StatusInternalServerError
	case ReasonRateLimited:
		return http.StatusTooManyRequests
	case ReasonServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

func reasonMessage(reason Reason) string {
	switch reason {
	case ReasonNone:
		return ""
	case ReasonRateLimited:
		return "AI analysis is rate limited right now, default insights returned"
	case ReasonServiceUnavailable:
		return "AI service unavailable, default insights returned"
	case ReasonMalformedResponse:
		return "AI response could not be parsed, default insights returned"
	case ReasonConfiguration:
		return "AI service not configured"
	default:
		return "AI analysis failed, default insights returned"
	}
}
