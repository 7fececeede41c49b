// Package generator calls a remote text-generation endpoint to produce the
// Recent Focus report.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/kenaz-focus/internal/apperr"
	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/focus"
)

const defaultTimeout = 90 * time.Second

// HTTP is a focus.Generator backed by a JSON-over-HTTP endpoint.
// A failed call is returned as-is; it is never retried.
type HTTP struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

type generateRequest struct {
	ProviderID string          `json:"provider_id"`
	ModelName  string          `json:"model_name"`
	Limit      int             `json:"limit"`
	Digests    []digest.Digest `json:"digests"`
}

type generateResponse struct {
	Report   *focus.Report `json:"report"`
	Markdown string        `json:"markdown"`
}

// NewHTTP creates a client for endpoint. A zero timeout uses the default.
func NewHTTP(endpoint, apiKey string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTP{
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate implements focus.Generator.
func (g *HTTP) Generate(ctx context.Context, digests []digest.Digest, params focus.Params) (focus.Result, error) {
	if g.endpoint == "" {
		return focus.Result{}, fmt.Errorf("generator: endpoint: %w", apperr.ErrNotConfigured)
	}
	if digests == nil {
		digests = []digest.Digest{}
	}
	body, err := json.Marshal(generateRequest{
		ProviderID: params.ProviderID,
		ModelName:  params.ModelName,
		Limit:      params.Limit,
		Digests:    digests,
	})
	if err != nil {
		return focus.Result{}, fmt.Errorf("generator: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return focus.Result{}, fmt.Errorf("generator: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return focus.Result{}, fmt.Errorf("generator: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return focus.Result{}, fmt.Errorf("generator: status %d: %s", resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return focus.Result{}, fmt.Errorf("generator: decode response: %w", err)
	}
	return focus.Result{Report: out.Report, RawMarkdown: out.Markdown}, nil
}

var _ focus.Generator = (*HTTP)(nil)
