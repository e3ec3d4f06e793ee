package diary

import (
	"sort"
	"strings"
)

// exerciseAliases maps lower cased spellings to the canonical exercise name.
var exerciseAliases = map[string]string{
	"running":         "Running",
	"run":             "Running",
	"jogging":         "Running",
	"jog":             "Running",
	"treadmill":       "Running",
	"walking":         "Walking",
	"walk":            "Walking",
	"hiking":          "Hiking",
	"hike":            "Hiking",
	"cycling":         "Cycling",
	"bike":            "Cycling",
	"biking":          "Cycling",
	"bicycle":         "Cycling",
	"spinning":        "Cycling",
	"swimming":        "Swimming",
	"swim":            "Swimming",
	"rowing":          "Rowing",
	"row":             "Rowing",
	"yoga":            "Yoga",
	"pilates":         "Pilates",
	"stretching":      "Stretching",
	"hiit":            "HIIT",
	"jump rope":       "Jump Rope",
	"skipping":        "Jump Rope",
	"bench press":     "Bench Press",
	"bench":           "Bench Press",
	"squat":           "Squats",
	"squats":          "Squats",
	"back squat":      "Squats",
	"deadlift":        "Deadlift",
	"deadlifts":       "Deadlift",
	"overhead press":  "Overhead Press",
	"shoulder press":  "Overhead Press",
	"military press":  "Overhead Press",
	"pull up":         "Pull-ups",
	"pull ups":        "Pull-ups",
	"pull-up":         "Pull-ups",
	"pull-ups":        "Pull-ups",
	"pullups":         "Pull-ups",
	"chin ups":        "Pull-ups",
	"push up":         "Push-ups",
	"push ups":        "Push-ups",
	"push-up":         "Push-ups",
	"push-ups":        "Push-ups",
	"pushups":         "Push-ups",
	"lunge":           "Lunges",
	"lunges":          "Lunges",
	"plank":           "Plank",
	"planks":          "Plank",
	"bicep curl":      "Bicep Curls",
	"bicep curls":     "Bicep Curls",
	"biceps curls":    "Bicep Curls",
	"curls":           "Bicep Curls",
	"barbell row":     "Barbell Row",
	"bent over row":   "Barbell Row",
	"lat pulldown":    "Lat Pulldown",
	"leg press":       "Leg Press",
	"dips":            "Dips",
	"burpees":         "Burpees",
	"elliptical":      "Elliptical",
	"stair climber":   "Stair Climber",
	"dancing":         "Dancing",
	"boxing":          "Boxing",
	"tennis":          "Tennis",
	"football":        "Football",
	"soccer":          "Football",
	"basketball":      "Basketball",
	"strength":        "Strength Training",
	"weights":         "Strength Training",
	"weight training": "Strength Training",
}

// CanonicalExerciseName returns the vocabulary name for the given exercise,
// or the cleaned up input when the exercise is not known.
func CanonicalExerciseName(name string) string {
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	if canonical, ok := exerciseAliases[strings.ToLower(cleaned)]; ok {
		return canonical
	}
	return cleaned
}

// CanonicalExerciseNames returns the sorted set of canonical names.
func CanonicalExerciseNames() []string {
	seen := make(map[string]struct{}, len(exerciseAliases))
	var names []string
	for _, canonical := range exerciseAliases {
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		names = append(names, canonical)
	}
	sort.Strings(names)
	return names
}
