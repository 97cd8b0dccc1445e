package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tiliavir/hrms-time-calc/internal/extract"
	"github.com/Tiliavir/hrms-time-calc/internal/logging"
	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/reconcile"
	"github.com/Tiliavir/hrms-time-calc/internal/status"
)

const maxBodyBytes = 16 << 20

// Server exposes extraction and calculation over HTTP. It keeps no state
// between requests.
type Server struct {
	extractor extract.Extractor
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a server. extractor may be nil, in which case extraction
// requests fail with 500.
func New(extractor extract.Extractor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{extractor: extractor, logger: logger, now: time.Now}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/extract-time", s.handleExtract)
	mux.HandleFunc("POST /api/calculate", s.handleCalculate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logRequests(mux)
}

type extractRequest struct {
	Image string `json:"image"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	if s.extractor == nil {
		writeError(w, http.StatusInternalServerError, "AI extraction is not configured")
		return
	}
	// Accept data URLs as well as bare base64.
	if _, data, ok := strings.Cut(req.Image, ","); ok && strings.HasPrefix(req.Image, "data:") {
		req.Image = data
	}
	jpeg, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image is not valid base64")
		return
	}

	resp, err := s.extractor.Extract(r.Context(), jpeg)
	if err != nil {
		var upstream *extract.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode != 0 {
			writeError(w, upstream.StatusCode, upstream.Message)
			return
		}
		s.logger.Error("extraction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type pair struct {
	ClockIn  string `json:"clockIn"`
	ClockOut string `json:"clockOut"`
}

type calculateRequest struct {
	ManualEntries      []pair              `json:"manualEntries"`
	ExtractedEntries   []extract.Candidate `json:"extractedEntries"`
	IsCurrentlyWorking bool                `json:"isCurrentlyWorking"`
	LastClockIn        string              `json:"lastClockIn"`
}

type calculateResponse struct {
	Summary  model.WorkSummary  `json:"summary"`
	Status   model.StatusResult `json:"status"`
	ExitTime string             `json:"exitTime,omitempty"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	manual := make([]model.TimeEntry, 0, len(req.ManualEntries))
	for _, p := range req.ManualEntries {
		if p.ClockIn == "" || p.ClockOut == "" {
			continue
		}
		manual = append(manual, model.NewEntry(p.ClockIn, p.ClockOut, model.OriginManual))
	}

	now := s.now()
	summary := reconcile.Reconcile(reconcile.Input{
		Manual:             manual,
		Extracted:          extract.Adapt(req.ExtractedEntries),
		IsCurrentlyWorking: req.IsCurrentlyWorking,
		LastClockIn:        req.LastClockIn,
	}, now)
	result := status.Calculate(summary.TotalWorkedMinutes)
	writeJSON(w, http.StatusOK, calculateResponse{
		Summary:  summary,
		Status:   result,
		ExitTime: status.ExitTime(summary, result, now),
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
