//go:build integration_test || all_tests

package test

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

const testAIKey = "test-ai-key"

type aiMode int32

const (
	aiModeOK aiMode = iota
	aiModeUnavailable
	aiModeRateLimited
	aiModeGarbage
)

const summaryJSON = `{
  "workouts": [{"name": "run", "durationMinutes": 28, "calories": 310}],
  "injuries": ["sore calves"],
  "suggestions": ["Foam roll your calves", "Hydrate well"]
}`

const recommendationsJSON = "```json\n" + `{
  "suggestions": ["Take an easy day", "Stretch your calves", "Sleep 8 hours"],
  "featuredWorkouts": [
    {"name": "Yoga", "durationMinutes": 20, "calories": 90, "difficultyLevel": "beginner"},
    {"name": "pushups", "sets": 3, "reps": 10, "calories": 60, "difficultyLevel": "intermediate"}
  ]
}` + "\n```"

// fakeAI serves the generateContent api shape.
type fakeAI struct {
	mode    atomic.Int32
	mu      sync.Mutex
	prompts []string
}

func newFakeAI() *fakeAI {
	return &fakeAI{}
}

func (f *fakeAI) setMode(m aiMode) {
	f.mode.Store(int32(m))
}

func (f *fakeAI) callsCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") != testAIKey || !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.Error(w, `{"error":{"code":403,"message":"bad key","status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
		return
	}

	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Contents) == 0 || len(req.Contents[0].Parts) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	prompt := req.Contents[0].Parts[0].Text

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	switch aiMode(f.mode.Load()) {
	case aiModeUnavailable:
		http.Error(w, `{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`, http.StatusServiceUnavailable)
		return
	case aiModeRateLimited:
		http.Error(w, `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
		return
	case aiModeGarbage:
		writeCandidate(w, "I am not sure what you mean")
		return
	}

	if strings.Contains(prompt, "\nDiary entry:\n") {
		writeCandidate(w, summaryJSON)
		return
	}
	writeCandidate(w, recommendationsJSON)
}

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]string{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
}
