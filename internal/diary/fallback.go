package diary

type ContextKind string

const (
	ContextDiary    ContextKind = "diary"
	ContextFeatured ContextKind = "featured"
)

// FallbackContext carries what the caller knows when ai enrichment fails.
type FallbackContext struct {
	DiaryText string
	Date      string
}

// FallbackProvider builds deterministic content used in place of ai output.
type FallbackProvider struct{}

func (FallbackProvider) DefaultSuggestions() []string {
	return []string{
		"Great job logging your activity, consistency is what builds results.",
		"Remember to stay hydrated and give your body time to recover.",
	}
}

// SuggestionsFor returns the suggestions shown to the user when the result
// is degraded for the given reason.
func (p FallbackProvider) SuggestionsFor(reason Reason) []string {
	var explanation string
	switch reason {
	case ReasonNone:
		return p.DefaultSuggestions()
	case ReasonRateLimited:
		explanation = "Our AI coach is getting a lot of requests right now. Your entry is saved, try again in a minute for personalized insights."
	case ReasonServiceUnavailable:
		explanation = "The AI service is temporarily unavailable. Your entry is saved and you can request insights again later."
	case ReasonMalformedResponse:
		explanation = "We could not read the AI analysis of this entry. Your entry is saved, try submitting it again for detailed insights."
	case ReasonConfiguration:
		explanation = "AI insights are not configured on this server. Your entry is saved without AI analysis."
	default:
		explanation = "Something went wrong while analyzing your entry. Your entry is saved, please try again later."
	}
	return []string{explanation, p.DefaultSuggestions()[1]}
}

// DefaultWorkouts returns the records used when no workout could be extracted.
// The diary flow keeps an empty list, the featured flow gets a beginner pair.
func (p FallbackProvider) DefaultWorkouts(kind ContextKind) []WorkoutRecord {
	if kind != ContextFeatured {
		return []WorkoutRecord{}
	}
	featured := p.DefaultFeatured()
	records := make([]WorkoutRecord, 0, len(featured))
	for _, f := range featured {
		records = append(records, f.WorkoutRecord)
	}
	return records
}

func (FallbackProvider) DefaultFeatured() []FeaturedWorkout {
	walkDuration, squatDuration := 30, 15
	squatSets, squatReps := 3, 12
	return []FeaturedWorkout{
		{
			WorkoutRecord: WorkoutRecord{
				Name:            "Walking",
				DurationMinutes: &walkDuration,
				Calories:        150,
			},
			DifficultyLevel: DifficultyBeginner,
		},
		{
			WorkoutRecord: WorkoutRecord{
				Name:            "Squats",
				DurationMinutes: &squatDuration,
				Calories:        100,
				Sets:            &squatSets,
				Reps:            &squatReps,
			},
			DifficultyLevel: DifficultyBeginner,
		},
	}
}

// DiaryFallback is the complete diary result used when the ai result is unusable.
func (p FallbackProvider) DiaryFallback(fc FallbackContext, reason Reason) *DiaryLogResult {
	return &DiaryLogResult{
		DiaryEntry:  fc.DiaryText,
		Date:        fc.Date,
		Workouts:    p.DefaultWorkouts(ContextDiary),
		Injuries:    []string{},
		Suggestions: p.SuggestionsFor(reason),
	}
}
