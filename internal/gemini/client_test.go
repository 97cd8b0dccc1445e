package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Tiliavir/hrms-time-calc/internal/extract"
)

func textReply(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/demo-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q, want secret", got)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" {
			t.Errorf("unexpected parts: %+v", parts)
		}
		if parts[1].InlineData.Data != "AQID" {
			t.Errorf("image data = %q, want base64 of input", parts[1].InlineData.Data)
		}
		textReply(t, w, "```json\n{\"timeEntries\":[{\"clockIn\":\"9:00 AM\",\"clockOut\":\"12:00 PM\"}],\"isCurrentlyWorking\":true,\"lastClockIn\":\"1:00 PM\",\"analysis\":\"two sessions\"}\n```")
	}))
	defer server.Close()

	client := NewClient(context.Background(), Config{APIKey: "secret", BaseURL: server.URL, Model: "demo-model"})
	resp, err := client.Extract(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(resp.TimeEntries) != 1 || resp.TimeEntries[0].ClockOut != "12:00 PM" {
		t.Errorf("TimeEntries = %+v", resp.TimeEntries)
	}
	if !resp.IsCurrentlyWorking || resp.LastClockIn != "1:00 PM" {
		t.Errorf("working = %v, lastClockIn = %q", resp.IsCurrentlyWorking, resp.LastClockIn)
	}
	if resp.Analysis != "two sessions" {
		t.Errorf("Analysis = %q", resp.Analysis)
	}
}

func TestClientExtractBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if r.URL.Query().Has("key") {
			t.Error("api key should not be sent when unset")
		}
		textReply(t, w, `{"timeEntries":[],"isCurrentlyWorking":false,"analysis":"none"}`)
	}))
	defer server.Close()

	client := NewClient(context.Background(), Config{AccessToken: "tok", BaseURL: server.URL})
	if _, err := client.Extract(context.Background(), []byte{1}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
}

func TestClientExtractHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.Extract(context.Background(), []byte{1})
	var upstream *extract.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", upstream.StatusCode)
	}
}

func TestClientExtractNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewClient(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.Extract(context.Background(), []byte{1})
	if err == nil || !strings.Contains(err.Error(), "Invalid response") {
		t.Fatalf("expected invalid response error, got %v", err)
	}
}

func TestClientExtractNotConfigured(t *testing.T) {
	client := NewClient(context.Background(), Config{})
	if client.Configured() {
		t.Fatal("client without credentials reports configured")
	}
	if _, err := client.Extract(context.Background(), []byte{1}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantError string
		entries   int
	}{
		{"plain json", `{"timeEntries":[{"clockIn":"9:00 AM","clockOut":"10:00 AM"}]}`, "", 1},
		{"prose around json", "Here you go:\n{\"timeEntries\":[]}\nThanks", "", 0},
		{"no json", "I could not read the image.", ParseFailure, 0},
		{"broken json", "{\"timeEntries\": [", ParseFailure, 0},
		{"invalid json", "{timeEntries: nope}", DecodeFailure, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeText(tt.text)
			if got.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", got.Error, tt.wantError)
			}
			if len(got.TimeEntries) != tt.entries {
				t.Errorf("entries = %d, want %d", len(got.TimeEntries), tt.entries)
			}
			if tt.wantError != "" && got.Analysis != tt.text {
				t.Errorf("Analysis = %q, want raw text", got.Analysis)
			}
		})
	}
}
