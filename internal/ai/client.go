package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/fitdiary/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	// error bodies are only read for their message
	maxErrorBodyBytes = 64 << 10
)

// Client calls the generateContent endpoint of a generative text api.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type NewClientParams struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewClient(params NewClientParams) *Client {
	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := params.Model
	if model == "" {
		model = DefaultModel
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(params.APIKey),
		model:      model,
		httpClient: httpClient,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Configured reports whether the client has an api key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt to the model and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "ai.client.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("ai.model", c.model))

	if !c.Configured() {
		return "", fmt.Errorf("%w: api key not set", ErrConfiguration)
	}

	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{Temperature: 0.2},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the url carries the key, keep it out of the error
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("generate request [%s]: %w", c.model, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Errorf("close generate response body: %s", closeErr)
		}
	}()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", newStatusError(resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decode generate response: %s", ErrMalformedResponse, err)
	}

	if len(genResp.Candidates) == 0 {
		if genResp.PromptFeedback != nil && genResp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", ErrMalformedResponse, genResp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty candidate text", ErrMalformedResponse)
	}

	return sb.String(), nil
}

func newStatusError(statusCode int, body []byte) *StatusError {
	statusErr := &StatusError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		statusErr.Message = apiErr.Error.Message
		statusErr.Status = apiErr.Error.Status
	}
	if statusErr.Message == "" {
		statusErr.Message = http.StatusText(statusCode)
	}

	return statusErr
}
