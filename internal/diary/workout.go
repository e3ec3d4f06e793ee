package diary

import (
	"errors"
	"strings"
	"time"

	"github.com/2beens/fitdiary/internal/ai"
)

const DateLayout = "2006-01-02"

// WorkoutRecord is either duration based (no sets, reps or weight)
// or sets based (sets and reps both set, weight optional).
type WorkoutRecord struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	Name            string   `json:"name"`
	DurationMinutes *int     `json:"durationMinutes,omitempty"`
	Calories        int      `json:"calories"`
	Sets            *int     `json:"sets,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
}

func (w WorkoutRecord) SetsBased() bool {
	return w.Sets != nil && w.Reps != nil
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty defaults to beginner for anything unrecognized.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d
	default:
		return DifficultyBeginner
	}
}

type FeaturedWorkout struct {
	WorkoutRecord
	DifficultyLevel Difficulty `json:"difficultyLevel"`
}

type DiaryLogResult struct {
	DiaryEntry  string          `json:"diaryEntry"`
	Date        string          `json:"date"`
	Workouts    []WorkoutRecord `json:"workouts"`
	Injuries    []string        `json:"injuries"`
	Suggestions []string        `json:"suggestions"`
}

// Entry is a diary entry as written by the user.
type Entry struct {
	Date       string `json:"date"`
	DiaryEntry string `json:"diaryEntry"`
}

// SavedLog is a DiaryLogResult as kept by the Store.
type SavedLog struct {
	ID        int             `json:"id"`
	UserID    string          `json:"userId"`
	Log       *DiaryLogResult `json:"log"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Reason tells why a result carries fallback content. Empty means the
// result is fully ai enriched.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonRateLimited        Reason = "rate_limited"
	ReasonServiceUnavailable Reason = "service_unavailable"
	ReasonMalformedResponse  Reason = "malformed_response"
	ReasonConfiguration      Reason = "configuration"
	ReasonUnknownFailure     Reason = "unknown_failure"
)

func ReasonFromError(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ai.ErrConfiguration):
		return ReasonConfiguration
	case errors.Is(err, ai.ErrRateLimitExceeded):
		return ReasonRateLimited
	case errors.Is(err, ai.ErrServiceUnavailable):
		return ReasonServiceUnavailable
	case errors.Is(err, ai.ErrMalformedResponse):
		return ReasonMalformedResponse
	default:
		return ReasonUnknownFailure
	}
}

type Outcome struct {
	Log    *DiaryLogResult
	Reason Reason
}

func (o Outcome) Degraded() bool {
	return o.Reason != ReasonNone
}

type FeaturedOutcome struct {
	Suggestions []string
	Workouts    []FeaturedWorkout
	Reason      Reason
}

func (o FeaturedOutcome) Degraded() bool {
	return o.Reason != ReasonNone
}
