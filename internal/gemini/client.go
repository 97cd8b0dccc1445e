// Package gemini sends HRMS screenshots to the Gemini generateContent API
// and turns the model's reply into an extract.Response.
//
// The client makes exactly one request per Extract call. Failures are
// returned as *extract.UpstreamError and are never retried.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Tiliavir/hrms-time-calc/internal/extract"
	"github.com/Tiliavir/hrms-time-calc/internal/logging"
)

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel     = "gemini-1.5-flash"
	maxResponseBytes = 4 << 20

	// ParseFailure is reported when the model answered without a JSON object.
	ParseFailure = "Could not parse structured data from AI response"
	// DecodeFailure is reported when the model's JSON object did not decode.
	DecodeFailure = "Failed to parse AI response as JSON"
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey         string
	AccessToken    string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the Gemini generateContent endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(ctx context.Context, cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			AccessToken:    strings.TrimSpace(cfg.AccessToken),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		logger: logging.NewNop(),
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	client.httpClient = extract.HTTPClient(ctx, client.cfg.AccessToken, cfg.TimeoutSeconds)
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether the client has credentials to call the API.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" || c.cfg.AccessToken != ""
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Extract sends the JPEG screenshot to Gemini.
func (c *Client) Extract(ctx context.Context, jpeg []byte) (extract.Response, error) {
	if !c.Configured() {
		return extract.Response{}, errors.New("gemini: api key not configured")
	}
	if len(jpeg) == 0 {
		return extract.Response{}, errors.New("gemini: image required")
	}

	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: extractionPrompt},
				{InlineData: &inlineData{MimeType: "image/jpeg", Data: base64.StdEncoding.EncodeToString(jpeg)}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 4096,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return extract.Response{}, fmt.Errorf("gemini: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return extract.Response{}, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return extract.Response{}, &extract.UpstreamError{Message: "gemini request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return extract.Response{}, &extract.UpstreamError{Message: "read gemini response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gemini api error", "status", resp.StatusCode, "body", snippet(data))
		return extract.Response{}, &extract.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Gemini API error: %d", resp.StatusCode),
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return extract.Response{}, &extract.UpstreamError{Message: "Invalid response from Gemini API", Err: err}
	}
	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Content == nil || len(parsed.Candidates[0].Content.Parts) == 0 {
		return extract.Response{}, &extract.UpstreamError{Message: "Invalid response from Gemini API"}
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	c.logger.Debug("gemini responded",
		"finish_reason", parsed.Candidates[0].FinishReason,
		"text_bytes", len(text),
	)
	return DecodeText(text), nil
}

func (c *Client) endpoint() string {
	u := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	if c.cfg.APIKey != "" {
		u += "?key=" + url.QueryEscape(c.cfg.APIKey)
	}
	return u
}

// DecodeText pulls the first JSON object out of the model's text reply. When
// there is none, or it does not decode, the raw text becomes the analysis and
// Error explains why.
func DecodeText(text string) extract.Response {
	object := jsonObject(text)
	if object == "" {
		return extract.Response{Analysis: text, Error: ParseFailure}
	}
	var resp extract.Response
	if err := json.Unmarshal([]byte(object), &resp); err != nil {
		return extract.Response{Analysis: text, Error: DecodeFailure}
	}
	return resp
}

// jsonObject returns the span from the first '{' to the last '}', or "".
func jsonObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
