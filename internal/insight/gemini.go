// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/review-radar/pkg/types"
)

// geminiAPIBase is the Gemini API root. Package-level var for test
// substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the Gemini generateContent API. It issues a single
// request per Generate call with no retrying: a failed call is a stage
// failure the Generator recovers from, not something worth waiting out.
type Gemini struct {
	Cfg    types.GeminiConfig
	Client *http.Client
}

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent is one turn of content in the Gemini API.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a single part of a content turn.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the response body from the generateContent API.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is one generated candidate.
type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// Name identifies the backend in logs, metrics, and reports.
func (g *Gemini) Name() string {
	return "gemini"
}

// Generate sends the prompt to the configured model and returns the
// concatenated text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, g.Cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.Cfg.APIKey)
	if g.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", g.Cfg.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &types.TransportError{Provider: "gemini", Op: "generate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &types.TransportError{
			Provider: "gemini",
			Op:       "generate",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected status"),
		}
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return "", &types.ParseError{Source: "gemini", Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(gResp.Candidates) == 0 {
		return "", &types.ParseError{Source: "gemini", Err: fmt.Errorf("no candidates in response")}
	}

	var text strings.Builder
	for _, part := range gResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", &types.ParseError{Source: "gemini", Err: fmt.Errorf("empty candidate text")}
	}
	return text.String(), nil
}
