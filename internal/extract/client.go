package extract

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
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/hrms-time-calc/internal/logging"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	maxResponseBytes   = 4 << 20
)

// Config captures the settings needed to reach an extraction endpoint.
type Config struct {
	URL            string
	AccessToken    string
	TimeoutSeconds int
}

// Client posts screenshots to an extraction endpoint that speaks the
// {image} -> {timeEntries, isCurrentlyWorking, lastClockIn, analysis} contract.
type Client struct {
	url        string
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

// NewClient constructs an endpoint client. A non-empty AccessToken is sent as
// an OAuth2 bearer token.
func NewClient(ctx context.Context, cfg Config, opts ...Option) *Client {
	client := &Client{
		url:        strings.TrimSpace(cfg.URL),
		httpClient: HTTPClient(ctx, cfg.AccessToken, cfg.TimeoutSeconds),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// HTTPClient returns an HTTP client with the given timeout. When token is set
// the client authorizes every request with it.
func HTTPClient(ctx context.Context, token string, timeoutSeconds int) *http.Client {
	timeout := defaultHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return &http.Client{Timeout: timeout}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = timeout
	return hc
}

type extractRequest struct {
	Image string `json:"image"`
}

// Extract sends the JPEG to the endpoint. Transport failures, non-2xx
// statuses, undecodable bodies and bodies carrying an error message all come
// back as *UpstreamError.
func (c *Client) Extract(ctx context.Context, jpeg []byte) (Response, error) {
	if c.url == "" {
		return Response{}, errors.New("ai extraction: endpoint url required")
	}
	if len(jpeg) == 0 {
		return Response{}, errors.New("ai extraction: image required")
	}

	body, err := json.Marshal(extractRequest{Image: base64.StdEncoding.EncodeToString(jpeg)})
	if err != nil {
		return Response{}, fmt.Errorf("ai extraction: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("ai extraction: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &UpstreamError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &UpstreamError{Message: "read response", Err: err}
	}
	c.logger.Debug("extraction endpoint responded",
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &UpstreamError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var parsed Response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Response{}, &UpstreamError{Message: "decode response", Err: err}
	}
	if parsed.Error != "" {
		return parsed, &UpstreamError{Message: parsed.Error}
	}
	return parsed, nil
}

// errorMessage pulls {"error": "..."} out of a failed response, falling back
// to the trimmed body.
func errorMessage(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
