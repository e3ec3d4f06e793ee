package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/2beens/fitdiary/internal/ai"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultDurationMinutes = 30
	DefaultCalories        = 200

	minSuggestions = 2
	maxSuggestions = 3
)

// EmptyWorkoutsPolicy decides what happens when no workout survives normalization.
type EmptyWorkoutsPolicy int

const (
	EmptyWorkoutsKeep EmptyWorkoutsPolicy = iota
	EmptyWorkoutsFillDefaults
)

var (
	leadingFenceRegex  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	trailingFenceRegex = regexp.MustCompile("\r?\n?```$")
	embeddedBlockRegex = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n(.*)\n[ \t]*```")
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

	errNotJSONObject = errors.New("json root is not an object")
)

// Normalizer turns raw model output into validated, schema consistent results.
// It never fails: unusable output becomes fallback content.
type Normalizer struct {
	fallback FallbackProvider
	newID    func() string
}

type NormalizerOption func(*Normalizer)

func WithIDGenerator(newID func() string) NormalizerOption {
	return func(n *Normalizer) {
		n.newID = newID
	}
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeDiary normalizes a diary summary response. An empty workouts
// list is kept as is.
func (n *Normalizer) NormalizeDiary(raw string, fc FallbackContext) Outcome {
	obj, err := decodeObject(raw)
	if err != nil {
		log.Errorf("normalize diary response: %s", err)
		return Outcome{
			Log:    n.DiaryFallback(fc, ReasonMalformedResponse),
			Reason: ReasonMalformedResponse,
		}
	}

	workouts := n.normalizeWorkouts(toSlice(obj["workouts"]), fc.Date)
	workouts = n.applyEmptyPolicy(EmptyWorkoutsKeep, workouts, ContextDiary, fc.Date)

	return Outcome{
		Log: &DiaryLogResult{
			DiaryEntry:  fc.DiaryText,
			Date:        fc.Date,
			Workouts:    workouts,
			Injuries:    normalizeStrings(toSlice(obj["injuries"]), 0),
			Suggestions: n.normalizeSuggestions(toSlice(obj["suggestions"])),
		},
	}
}

// NormalizeFeatured normalizes a featured workouts response. An empty
// workouts list is replaced by the default beginner pair.
func (n *Normalizer) NormalizeFeatured(raw string, fc FallbackContext) FeaturedOutcome {
	obj, err := decodeObject(raw)
	if err != nil {
		log.Errorf("normalize featured workouts response: %s", err)
		return n.FeaturedFallback(fc, ReasonMalformedResponse)
	}

	items, ok := obj["featuredWorkouts"]
	if !ok {
		items = obj["workouts"]
	}

	var featured []FeaturedWorkout
	for i, item := range toSlice(items) {
		fields, ok := item.(map[string]any)
		if !ok {
			log.Debugf("skipping featured workout %d, not an object: %v", i, item)
			continue
		}
		featured = append(featured, FeaturedWorkout{
			WorkoutRecord:   n.normalizeWorkout(fields, len(featured)+1, fc.Date),
			DifficultyLevel: ParseDifficulty(toString(fields["difficultyLevel"])),
		})
	}
	if len(featured) == 0 {
		featured = n.applyEmptyFeaturedPolicy(EmptyWorkoutsFillDefaults, fc.Date)
	}

	return FeaturedOutcome{
		Suggestions: n.normalizeSuggestions(toSlice(obj["suggestions"])),
		Workouts:    featured,
	}
}

func (n *Normalizer) DiaryFallback(fc FallbackContext, reason Reason) *DiaryLogResult {
	result := n.fallback.DiaryFallback(fc, reason)
	n.stamp(result.Workouts, fc.Date)
	return result
}

func (n *Normalizer) FeaturedFallback(fc FallbackContext, reason Reason) FeaturedOutcome {
	return FeaturedOutcome{
		Suggestions: n.fallback.SuggestionsFor(reason),
		Workouts:    n.applyEmptyFeaturedPolicy(EmptyWorkoutsFillDefaults, fc.Date),
		Reason:      reason,
	}
}

func (n *Normalizer) applyEmptyPolicy(policy EmptyWorkoutsPolicy, workouts []WorkoutRecord, kind ContextKind, date string) []WorkoutRecord {
	if len(workouts) > 0 {
		return workouts
	}
	if policy == EmptyWorkoutsKeep {
		return []WorkoutRecord{}
	}
	defaults := n.fallback.DefaultWorkouts(kind)
	n.stamp(defaults, date)
	return defaults
}

func (n *Normalizer) applyEmptyFeaturedPolicy(policy EmptyWorkoutsPolicy, date string) []FeaturedWorkout {
	if policy == EmptyWorkoutsKeep {
		return []FeaturedWorkout{}
	}
	defaults := n.fallback.DefaultFeatured()
	for i := range defaults {
		defaults[i].ID = n.newID()
		defaults[i].Date = date
	}
	return defaults
}

func (n *Normalizer) stamp(workouts []WorkoutRecord, date string) {
	for i := range workouts {
		workouts[i].ID = n.newID()
		workouts[i].Date = date
	}
}

func (n *Normalizer) normalizeWorkouts(items []any, date string) []WorkoutRecord {
	workouts := make([]WorkoutRecord, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			log.Debugf("skipping workout %d, not an object: %v", i, item)
			continue
		}
		workouts = append(workouts, n.normalizeWorkout(fields, len(workouts)+1, date))
	}
	return workouts
}

// normalizeWorkout coerces a single model workout. number is the 1 based
// position used for the placeholder name.
func (n *Normalizer) normalizeWorkout(fields map[string]any, number int, date string) WorkoutRecord {
	name := CanonicalExerciseName(toString(fields["name"]))
	if name == "" {
		name = fmt.Sprintf("Workout %d", number)
	}

	duration, ok := toPositiveInt(fields["durationMinutes"])
	if !ok {
		duration = DefaultDurationMinutes
	}
	calories, ok := toPositiveInt(fields["calories"])
	if !ok {
		calories = DefaultCalories
	}

	record := WorkoutRecord{
		ID:              n.newID(),
		Date:            date,
		Name:            name,
		DurationMinutes: &duration,
		Calories:        calories,
	}

	// sets and reps only make sense together, a lone one is dropped
	// along with the weight
	sets, hasSets := toPositiveInt(fields["sets"])
	reps, hasReps := toPositiveInt(fields["reps"])
	if hasSets && hasReps {
		record.Sets = &sets
		record.Reps = &reps
		if weight, hasWeight := toPositiveFloat(fields["weight"]); hasWeight {
			record.Weight = &weight
		}
	}

	return record
}

func (n *Normalizer) normalizeSuggestions(items []any) []string {
	suggestions := normalizeStrings(items, maxSuggestions)
	for _, def := range n.fallback.DefaultSuggestions() {
		if len(suggestions) >= minSuggestions {
			break
		}
		if !slices.Contains(suggestions, def) {
			suggestions = append(suggestions, def)
		}
	}
	return suggestions
}

// normalizeStrings keeps the non empty strings of items, trimmed.
// limit <= 0 means no limit.
func normalizeStrings(items []any, limit int) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		result = append(result, s)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// decodeObject parses the model output as a json object. The raw text is
// tried first, then without surrounding code fences. Only text that is not
// valid json is repaired; valid json with a non-object root is malformed.
func decodeObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	obj, err := parseObject(text)
	if err == nil {
		return obj, nil
	}
	if !isSyntaxError(err) {
		return nil, malformed(err)
	}

	if unfenced := stripCodeFences(text); unfenced != text {
		text = unfenced
		if obj, err = parseObject(text); err == nil {
			return obj, nil
		}
		if !isSyntaxError(err) {
			return nil, malformed(err)
		}
	}

	// a fenced block wrapped in prose
	if m := embeddedBlockRegex.FindStringSubmatch(text); m != nil {
		block := strings.TrimSpace(m[1])
		blockObj, blockErr := parseObject(block)
		if blockErr == nil {
			return blockObj, nil
		}
		if !isSyntaxError(blockErr) {
			return nil, malformed(blockErr)
		}
		text = block
	}

	if repaired, ok := repairJSON(text); ok {
		if obj, repairErr := parseObject(repaired); repairErr == nil {
			log.Debugln("model response parsed after repair")
			return obj, nil
		}
	}

	return nil, malformed(err)
}

func parseObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", errNotJSONObject, v)
	}
	return obj, nil
}

func isSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr)
}

func malformed(err error) error {
	return fmt.Errorf("%w: %s", ai.ErrMalformedResponse, err)
}

// stripCodeFences removes a code fence opening the text and one closing it.
// Backticks inside the text are left alone.
func stripCodeFences(text string) string {
	text = leadingFenceRegex.ReplaceAllString(text, "")
	text = trailingFenceRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// repairJSON cuts the outermost object out of surrounding prose and drops
// trailing commas.
func repairJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return trailingCommaRegex.ReplaceAllString(text[start:end+1], "$1"), true
}

func toSlice(v any) []any {
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}

func toString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// toFloat accepts json numbers and numeric strings.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toPositiveInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	i := int(math.Round(f))
	if i <= 0 {
		return 0, false
	}
	return i, true
}

func toPositiveFloat(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}
