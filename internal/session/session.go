// Package session threads the upload → extract → calculate workflow through
// one explicit state value.
//
// A Session owns the manual and extracted entry sets, the current-session
// flags and the one-shot completion guard. Every action is a method; the
// phase says which actions make sense next. A Session is not safe for
// concurrent use and allows a single extraction in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/hrms-time-calc/internal/extract"
	"github.com/Tiliavir/hrms-time-calc/internal/imageprep"
	"github.com/Tiliavir/hrms-time-calc/internal/logging"
	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/reconcile"
	"github.com/Tiliavir/hrms-time-calc/internal/status"
)

// Phase is the position in the upload/extract workflow.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseImageLoaded Phase = "image_loaded"
	PhaseExtracting  Phase = "extracting"
	PhaseExtracted   Phase = "extracted"
	PhaseFailed      Phase = "failed"
)

var (
	ErrNoImage            = errors.New("no image loaded")
	ErrExtractionInFlight = errors.New("extraction already in progress")
	ErrIncompleteEntry    = errors.New("clock-in and clock-out are both required")
	ErrNoSuchEntry        = errors.New("no such entry")
)

// Report is the result of one Calculate call.
type Report struct {
	Summary  model.WorkSummary  `json:"summary"`
	Status   model.StatusResult `json:"status"`
	ExitTime string             `json:"exitTime,omitempty"`
	// Celebrate is true only for the first completed report since the entry
	// set last changed.
	Celebrate bool `json:"celebrate"`
}

// Session is the in-memory state of one calculation workflow.
type Session struct {
	id     string
	logger *slog.Logger

	phase      Phase
	image      []byte
	imageStats imageprep.Stats
	lastErr    error
	analysis   string

	manual      []model.TimeEntry
	extracted   []model.TimeEntry
	working     bool
	lastClockIn string

	guard status.Guard
}

// New creates an idle session. A nil logger discards output.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		logger: logger.With("session_id", id),
		phase:  PhaseIdle,
	}
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Phase() Phase                 { return s.phase }
func (s *Session) Err() error                   { return s.lastErr }
func (s *Session) Analysis() string             { return s.analysis }
func (s *Session) ImageStats() imageprep.Stats  { return s.imageStats }
func (s *Session) IsCurrentlyWorking() bool     { return s.working }
func (s *Session) LastClockIn() string          { return s.lastClockIn }
func (s *Session) Manual() []model.TimeEntry    { return slices.Clone(s.manual) }
func (s *Session) Extracted() []model.TimeEntry { return slices.Clone(s.extracted) }

// LoadImage replaces the screenshot. Entries from a previous extraction are
// discarded.
func (s *Session) LoadImage(jpeg []byte, stats imageprep.Stats) error {
	if s.phase == PhaseExtracting {
		return ErrExtractionInFlight
	}
	if len(jpeg) == 0 {
		return ErrNoImage
	}
	s.image = jpeg
	s.imageStats = stats
	s.extracted = nil
	s.analysis = ""
	s.lastErr = nil
	s.phase = PhaseImageLoaded
	s.entriesChanged()
	s.logger.Info("image loaded",
		"original_bytes", stats.OriginalBytes,
		"compressed_bytes", stats.CompressedBytes,
		"reduction_percent", stats.ReductionPercent(),
	)
	return nil
}

// Extract runs the loaded image through ex. On success the adapted entries
// replace the extracted set. A failure is stored, returned once and leaves
// the previous entries untouched; the caller has to start a new attempt.
func (s *Session) Extract(ctx context.Context, ex extract.Extractor) error {
	if s.phase == PhaseExtracting {
		return ErrExtractionInFlight
	}
	if len(s.image) == 0 {
		return ErrNoImage
	}

	s.phase = PhaseExtracting
	s.lastErr = nil
	start := time.Now()
	resp, err := ex.Extract(ctx, s.image)
	if err == nil && resp.Error != "" {
		err = &extract.UpstreamError{Message: resp.Error}
	}
	if err != nil {
		s.phase = PhaseFailed
		s.lastErr = fmt.Errorf("AI extraction failed: %w", err)
		s.logger.Warn("extraction failed", "error", err)
		return s.lastErr
	}

	s.extracted = extract.Adapt(resp.TimeEntries)
	s.analysis = resp.Analysis
	if resp.IsCurrentlyWorking {
		s.working = true
		if resp.LastClockIn != "" {
			s.lastClockIn = resp.LastClockIn
		}
	}
	s.phase = PhaseExtracted
	s.entriesChanged()
	s.logger.Info("extraction completed",
		"candidates", len(resp.TimeEntries),
		"accepted", len(s.extracted),
		"currently_working", resp.IsCurrentlyWorking,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// AddManual appends a user-entered entry.
func (s *Session) AddManual(clockIn, clockOut string) (model.TimeEntry, error) {
	if clockIn == "" || clockOut == "" {
		return model.TimeEntry{}, ErrIncompleteEntry
	}
	e := model.NewEntry(clockIn, clockOut, model.OriginManual)
	s.manual = append(s.manual, e)
	s.entriesChanged()
	return e, nil
}

// RemoveManual deletes the manual entry at index i.
func (s *Session) RemoveManual(i int) error {
	if i < 0 || i >= len(s.manual) {
		return fmt.Errorf("manual entry %d: %w", i, ErrNoSuchEntry)
	}
	s.manual = slices.Delete(slices.Clone(s.manual), i, i+1)
	s.entriesChanged()
	return nil
}

// RemoveExtracted deletes the extracted entry at index i.
func (s *Session) RemoveExtracted(i int) error {
	if i < 0 || i >= len(s.extracted) {
		return fmt.Errorf("extracted entry %d: %w", i, ErrNoSuchEntry)
	}
	s.extracted = slices.Delete(slices.Clone(s.extracted), i, i+1)
	s.entriesChanged()
	return nil
}

// SetWorking records whether a session is still open and when it started.
func (s *Session) SetWorking(working bool, lastClockIn string) {
	if s.working == working && s.lastClockIn == lastClockIn {
		return
	}
	s.working = working
	s.lastClockIn = lastClockIn
	s.entriesChanged()
}

// Calculate builds a fresh report for now. Repeating it without changing the
// entries never celebrates twice.
func (s *Session) Calculate(now time.Time) Report {
	summary := reconcile.Reconcile(reconcile.Input{
		Manual:             s.manual,
		Extracted:          s.extracted,
		IsCurrentlyWorking: s.working,
		LastClockIn:        s.lastClockIn,
	}, now)
	result := status.Calculate(summary.TotalWorkedMinutes)
	report := Report{
		Summary:   summary,
		Status:    result,
		ExitTime:  status.ExitTime(summary, result, now),
		Celebrate: s.guard.Observe(result),
	}
	s.logger.Debug("calculated",
		"entries", len(summary.Entries),
		"total_minutes", summary.TotalWorkedMinutes,
		"status", result.Status,
		"celebrate", report.Celebrate,
	)
	return report
}

func (s *Session) entriesChanged() {
	s.guard.Reset()
}
