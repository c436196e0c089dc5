package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"rtl-converter/internal/types"
)

// generateRequest is the request body for the generateContent API.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

// generateResponse is the subset of the generateContent response this
// engine consumes.
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content candidateContent `json:"content"`
}

type candidateContent struct {
	Parts []part `json:"parts"`
}

// requestTemperature keeps model output deterministic enough for a
// key-for-key mapping.
const requestTemperature = 0.1

// callModel posts one generateContent request and returns the HTTP
// status and response body. Transport failures return an error with no
// status.
func (e *Engine) callModel(ctx context.Context, model, prompt string) (int, []byte, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:      requestTemperature,
			ResponseMIMEType: "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return 0, nil, types.NewAppError(types.ErrInternal, "failed to marshal request body", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimSuffix(e.baseURL, "/"), model, url.QueryEscape(e.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, nil, types.NewAppError(types.ErrInternal, "failed to create HTTP request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, types.NewAppError(types.ErrNetwork, "API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, types.NewAppError(types.ErrNetwork, "failed to read API response", err)
	}

	return resp.StatusCode, body, nil
}

// extractCandidateText pulls the generated text out of a generateContent
// response, joining multi-part candidates.
func extractCandidateText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", types.NewAppError(types.ErrAPIResponse, "failed to parse API response", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", types.NewAppError(types.ErrAPIResponse, "response contains no candidate text", nil)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// retryDelayPattern matches the retryDelay hint in rate-limit bodies,
// both the RetryInfo string form ("30s") and a bare number.
var retryDelayPattern = regexp.MustCompile(`"retryDelay"\s*:\s*"?(\d+)`)

// parseRetryDelay extracts the server-suggested retry delay in whole
// seconds from a rate-limit response body. ok is false when the body
// carries no usable hint.
func parseRetryDelay(body []byte) (int, bool) {
	m := retryDelayPattern.FindSubmatch(body)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, false
	}
	return seconds, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
