//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/fitdiary/internal/ai"
	"github.com/2beens/fitdiary/internal/auth"
	"github.com/2beens/fitdiary/internal/diary"
	"github.com/2beens/fitdiary/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summarizeResponse struct {
	LogData  *diary.DiaryLogResult `json:"logData"`
	Degraded bool                  `json:"degraded"`
	Reason   diary.Reason          `json:"reason"`
	Message  string                `json:"message"`
	Saved    bool                  `json:"saved"`
}

type recommendationsResponse struct {
	Success          bool                    `json:"success"`
	Suggestions      []string                `json:"suggestions"`
	FeaturedWorkouts []diary.FeaturedWorkout `json:"featuredWorkouts"`
	Debug            struct {
		Attempts []struct {
			Number int    `json:"number"`
			Kind   string `json:"kind"`
		} `json:"attempts"`
		Reason      diary.Reason `json:"reason"`
		Cached      bool         `json:"cached"`
		ContextDays int          `json:"contextDays"`
	} `json:"debug"`
	Meta struct {
		Model         string             `json:"model"`
		ContextWindow []diary.ContextDay `json:"contextWindow"`
	} `json:"meta"`
}

func doRequest(ctx context.Context, t *testing.T, method, path string, body any, headers map[string]string) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) loginSession(ctx context.Context, token, userID string) map[string]string {
	err := s.redisClient.Set(ctx, auth.SessionKey(token), auth.SessionValue(userID, time.Now()), time.Hour).Err()
	s.Require().NoError(err)
	return map[string]string{middleware.TokenHeader: token}
}

func (s *IntegrationTestSuite) TestHealth() {
	t := s.T()
	status, body := doRequest(context.Background(), t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "I'm OK, thanks ;)", string(body))
}

func (s *IntegrationTestSuite) TestSummarizeSaveAndList() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// saving needs the session of the same user
	status, _ := doRequest(ctx, t, http.MethodPost, "/diary/summarize", map[string]string{
		"diaryText": "Ran 5k this morning, calves are sore",
		"userId":    "integration-user-1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	session := s.loginSession(ctx, "integration-session", "integration-user-1")
	status, body := doRequest(ctx, t, http.MethodPost, "/diary/summarize", map[string]string{
		"diaryText": "Ran 5k this morning, calves are sore",
		"logDate":   "2024-05-10",
		"userId":    "integration-user-1",
	}, session)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp summarizeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.Degraded)
	assert.True(t, resp.Saved)
	require.NotNil(t, resp.LogData)
	assert.Equal(t, "2024-05-10", resp.LogData.Date)
	require.Len(t, resp.LogData.Workouts, 1)
	assert.Equal(t, "Running", resp.LogData.Workouts[0].Name)
	assert.Equal(t, 310, resp.LogData.Workouts[0].Calories)
	assert.Equal(t, []string{"sore calves"}, resp.LogData.Injuries)

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM diary_log WHERE user_id = $1`, "integration-user-1",
	).Scan(&rows))
	assert.Equal(t, 1, rows)

	// stored logs need a session
	status, _ = doRequest(ctx, t, http.MethodGet, "/diary/logs/integration-user-1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// and only the owner can read them
	otherSession := s.loginSession(ctx, "integration-session-other", "integration-user-other")
	status, _ = doRequest(ctx, t, http.MethodGet, "/diary/logs/integration-user-1", nil, otherSession)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doRequest(ctx, t, http.MethodPost, "/diary/summarize", map[string]string{
		"diaryText": "Not my diary",
		"userId":    "integration-user-1",
	}, otherSession)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doRequest(ctx, t, http.MethodGet, "/diary/logs/integration-user-1", nil, session)
	require.Equal(t, http.StatusOK, status, string(body))

	var logs []*diary.SavedLog
	require.NoError(t, json.Unmarshal(body, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "Ran 5k this morning, calves are sore", logs[0].Log.DiaryEntry)
}

func (s *IntegrationTestSuite) TestSummarizeServiceUnavailable() {
	t := s.T()
	s.fakeAI.setMode(aiModeUnavailable)
	callsBefore := s.fakeAI.callsCount()

	status, body := doRequest(context.Background(), t, http.MethodPost, "/diary/summarize", map[string]string{
		"diaryText": "Did some yoga",
		"logDate":   "2024-05-11",
	}, nil)
	require.Equal(t, http.StatusServiceUnavailable, status, string(body))

	var resp summarizeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Degraded)
	assert.Equal(t, diary.ReasonServiceUnavailable, resp.Reason)
	assert.False(t, resp.Saved)
	require.NotNil(t, resp.LogData)
	assert.Equal(t, "Did some yoga", resp.LogData.DiaryEntry)
	assert.Empty(t, resp.LogData.Workouts)
	assert.Len(t, resp.LogData.Suggestions, 2)

	// every attempt reached the api
	assert.Equal(t, 3, s.fakeAI.callsCount()-callsBefore)
}

func (s *IntegrationTestSuite) TestSummarizeMalformedNotRetried() {
	t := s.T()
	s.fakeAI.setMode(aiModeGarbage)
	callsBefore := s.fakeAI.callsCount()

	status, body := doRequest(context.Background(), t, http.MethodPost, "/diary/summarize", map[string]string{
		"diaryText": "Leg day",
	}, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp summarizeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Degraded)
	assert.Equal(t, diary.ReasonMalformedResponse, resp.Reason)
	assert.Equal(t, 1, s.fakeAI.callsCount()-callsBefore)
}

func (s *IntegrationTestSuite) TestRecommendationsFromStoredEntries() {
	t := s.T()
	ctx := context.Background()
	today := time.Now().Format(diary.DateLayout)
	session := s.loginSession(ctx, "integration-session-2", "integration-user-2")

	status, body := doRequest(ctx, t, http.MethodPost, "/diary/summarize", map[string]string{
		"diaryText": "Ran 5k, calves sore",
		"logDate":   today,
		"userId":    "integration-user-2",
	}, session)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doRequest(ctx, t, http.MethodPost, "/diary/recommendations", map[string]any{
		"userId": "integration-user-2",
	}, session)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp recommendationsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Suggestions, 3)
	require.Len(t, resp.FeaturedWorkouts, 2)
	assert.Equal(t, "Yoga", resp.FeaturedWorkouts[0].Name)
	assert.Equal(t, "Push-ups", resp.FeaturedWorkouts[1].Name)
	assert.Equal(t, diary.DifficultyIntermediate, resp.FeaturedWorkouts[1].DifficultyLevel)
	assert.Equal(t, "fake-model", resp.Meta.Model)
	assert.Equal(t, 3, resp.Debug.ContextDays)
	assert.False(t, resp.Debug.Cached)

	require.Len(t, resp.Meta.ContextWindow, 3)
	assert.Equal(t, today, resp.Meta.ContextWindow[2].Date)
	assert.Equal(t, "Ran 5k, calves sore", resp.Meta.ContextWindow[2].Entry)
	assert.True(t, resp.Meta.ContextWindow[0].Missing)

	// same context is served from the cache
	callsBefore := s.fakeAI.callsCount()
	status, body = doRequest(ctx, t, http.MethodPost, "/diary/recommendations", map[string]any{
		"userId": "integration-user-2",
	}, session)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Debug.Cached)
	assert.Equal(t, callsBefore, s.fakeAI.callsCount())
}

func (s *IntegrationTestSuite) TestRecommendationsRateLimited() {
	t := s.T()
	s.fakeAI.setMode(aiModeRateLimited)

	status, body := doRequest(context.Background(), t, http.MethodPost, "/diary/recommendations", map[string]any{
		"diaryEntries": []diary.Entry{
			{Date: time.Now().Format(diary.DateLayout), DiaryEntry: "Squats 3x12"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp recommendationsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, diary.ReasonRateLimited, resp.Debug.Reason)
	require.Len(t, resp.Debug.Attempts, 3)
	for _, a := range resp.Debug.Attempts {
		assert.Equal(t, string(ai.KindRateLimited), a.Kind)
	}
	require.Len(t, resp.FeaturedWorkouts, 2)
	assert.Equal(t, "Walking", resp.FeaturedWorkouts[0].Name)

	status, body = doRequest(context.Background(), t, http.MethodGet, "/ai/status", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var limiterStatus ai.RateLimitStatus
	require.NoError(t, json.Unmarshal(body, &limiterStatus))
	assert.GreaterOrEqual(t, limiterStatus.RecentErrors, 3)
	assert.Greater(t, limiterStatus.AdaptiveDelayMs, int64(1))
}
