package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client provides a lightweight facade over the model API so callers can
// focus on translating domain requests. When no API key is configured the
// call falls back to deterministic synthetic output, which keeps the worker
// fully operational in local and CI environments while preserving the
// extension point for real API calls.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient validates options and constructs a client.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("genai: base url is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("genai: model is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate performs one opaque model call. Progress is reported in coarse
// phases; the transport timeout on the HTTP client bounds how long the call
// may run.
func (c *Client) Generate(ctx context.Context, req Request, onProgress func(Progress)) (json.RawMessage, error) {
	report := func(message string, percent int) {
		if onProgress != nil {
			onProgress(Progress{Message: message, Percent: percent})
		}
	}

	report("request accepted", 5)

	if c.apiKey == "" {
		return c.syntheticResult(req, report)
	}

	payload := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: promptFor(req)}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("genai: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	report("calling model", 25)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai: call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genai: model returned status %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	report("decoding response", 85)
	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("genai: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("genai: model returned no candidates")
	}

	result := map[string]any{
		"kind":    req.Kind,
		"model":   c.model,
		"content": decoded.Candidates[0].Content.Parts[0].Text,
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("genai: encode result: %w", err)
	}
	return out, nil
}

// syntheticResult produces deterministic output derived from the request so
// repeated runs of the same job compare equal.
func (c *Client) syntheticResult(req Request, report func(string, int)) (json.RawMessage, error) {
	if c.logger != nil {
		c.logger.Debug().Str("request_id", req.RequestID).Msg("genai: no api key, producing synthetic result")
	}
	report("calling model", 25)
	sum := sha256.Sum256([]byte(string(req.Kind) + "|" + req.Prompt))
	report("decoding response", 85)
	result := map[string]any{
		"kind":      req.Kind,
		"model":     c.model,
		"synthetic": true,
		"content":   fmt.Sprintf("synthetic %s output %s", req.Kind, hex.EncodeToString(sum[:8])),
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("genai: encode synthetic result: %w", err)
	}
	return out, nil
}

func promptFor(req Request) string {
	if req.Kind == domain.JobKindImage {
		return "Generate an image description for: " + req.Prompt
	}
	return req.Prompt
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ Generator = (*Client)(nil)
