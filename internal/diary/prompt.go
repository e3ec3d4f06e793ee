package diary

import (
	"fmt"
	"strings"
	"time"
)

const (
	ContextWindowDays  = 3
	noEntryPlaceholder = "no entry"
)

// ContextDay is one day of the recommendations context window.
type ContextDay struct {
	Date    string `json:"date"`
	Entry   string `json:"entry"`
	Missing bool   `json:"missing"`
}

// BuildContextWindow returns the days calendar days ending at today, oldest
// first. Days without an entry get a placeholder, several entries on the
// same day are joined.
func BuildContextWindow(entries []Entry, today time.Time, days int) []ContextDay {
	byDate := make(map[string][]string)
	for _, e := range entries {
		date, err := time.Parse(DateLayout, strings.TrimSpace(e.Date))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(e.DiaryEntry)
		if text == "" {
			continue
		}
		key := date.Format(DateLayout)
		byDate[key] = append(byDate[key], text)
	}

	window := make([]ContextDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(DateLayout)
		texts, ok := byDate[date]
		if !ok {
			window = append(window, ContextDay{Date: date, Entry: noEntryPlaceholder, Missing: true})
			continue
		}
		window = append(window, ContextDay{Date: date, Entry: strings.Join(texts, "\n")})
	}
	return window
}

func BuildSummaryPrompt(diaryText string) string {
	var sb strings.Builder
	sb.WriteString("You are a fitness coach analyzing a workout diary entry.\n")
	sb.WriteString("Extract the workouts, any injuries or pain mentioned, and give 2 to 3 short suggestions.\n\n")
	sb.WriteString("Respond with a single JSON object and nothing else, using this shape:\n")
	sb.WriteString(`{"workouts":[{"name":string,"durationMinutes":number,"calories":number,"sets":number,"reps":number,"weight":number}],"injuries":[string],"suggestions":[string]}`)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- For strength exercises give sets and reps (and weight in kg if mentioned), otherwise leave them out.\n")
	sb.WriteString("- Estimate durationMinutes and calories when they are not stated.\n")
	sb.WriteString("- Use these exercise names when they apply: ")
	sb.WriteString(strings.Join(CanonicalExerciseNames(), ", "))
	sb.WriteString(".\n\n")
	fmt.Fprintf(&sb, "Diary entry:\n%s\n", strings.TrimSpace(diaryText))
	return sb.String()
}

func BuildRecommendationsPrompt(window []ContextDay) string {
	var sb strings.Builder
	sb.WriteString("You are a fitness coach recommending the next workouts based on the last days of a workout diary.\n\n")
	sb.WriteString("Diary, oldest day first:\n")
	for _, day := range window {
		fmt.Fprintf(&sb, "%s: %s\n", day.Date, day.Entry)
	}
	sb.WriteString("\nRespond with a single JSON object and nothing else, using this shape:\n")
	sb.WriteString(`{"suggestions":[string],"featuredWorkouts":[{"name":string,"durationMinutes":number,"calories":number,"sets":number,"reps":number,"weight":number,"difficultyLevel":"beginner"|"intermediate"|"advanced"}]}`)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Give 2 to 3 suggestions and 2 to 4 featured workouts.\n")
	sb.WriteString("- Take recent injuries and rest days into account.\n")
	sb.WriteString("- Use these exercise names when they apply: ")
	sb.WriteString(strings.Join(CanonicalExerciseNames(), ", "))
	sb.WriteString(".\n")
	return sb.String()
}
