package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tiliavir/hrms-time-calc/internal/extract"
	"github.com/Tiliavir/hrms-time-calc/internal/imageprep"
	"github.com/Tiliavir/hrms-time-calc/internal/model"
)

var afternoon = time.Date(2026, 2, 27, 16, 30, 0, 0, time.UTC)

type fakeExtractor struct {
	resp  extract.Response
	err   error
	calls int
	// during runs inside Extract, while the session is mid-flight.
	during func()
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) (extract.Response, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	return f.resp, f.err
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New(nil)
	if err := s.LoadImage([]byte{0xff, 0xd8}, imageprep.Stats{OriginalBytes: 10, CompressedBytes: 2}); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	return s
}

func TestEndToEndPending(t *testing.T) {
	s := loaded(t)
	if _, err := s.AddManual("9:00 AM", "12:00 PM"); err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	ex := &fakeExtractor{resp: extract.Response{
		TimeEntries: []extract.Candidate{
			{ClockIn: "1:00 PM", ClockOut: "5:00 PM"},
			{ClockIn: "5:30 PM", ClockOut: "MISSING"},
		},
		Analysis: "two rows",
	}}
	if err := s.Extract(context.Background(), ex); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if s.Phase() != PhaseExtracted {
		t.Errorf("Phase = %s, want %s", s.Phase(), PhaseExtracted)
	}
	if s.Analysis() != "two rows" {
		t.Errorf("Analysis = %q", s.Analysis())
	}

	r := s.Calculate(afternoon)
	if r.Summary.TotalWorkedMinutes != 420 {
		t.Errorf("TotalWorkedMinutes = %d, want 420", r.Summary.TotalWorkedMinutes)
	}
	if r.Status.Status != model.StatusPending || r.Status.RemainingMinutes != 60 {
		t.Errorf("Status = %+v, want pending with 60 remaining", r.Status)
	}
	if r.ExitTime != "" {
		t.Errorf("ExitTime = %q, want empty when not working", r.ExitTime)
	}
	if r.Celebrate {
		t.Error("pending report must not celebrate")
	}
}

func TestCelebrateOnce(t *testing.T) {
	s := New(nil)
	if _, err := s.AddManual("9:00 AM", "5:30 PM"); err != nil {
		t.Fatal(err)
	}

	first := s.Calculate(afternoon)
	second := s.Calculate(afternoon.Add(time.Minute))
	if first.Status.Status != model.StatusCompleted || second.Status.Status != model.StatusCompleted {
		t.Fatalf("expected completed twice, got %s and %s", first.Status.Status, second.Status.Status)
	}
	if !first.Celebrate {
		t.Error("first completed report should celebrate")
	}
	if second.Celebrate {
		t.Error("recalculating the same entries must not celebrate again")
	}

	if _, err := s.AddManual("6:00 PM", "6:30 PM"); err != nil {
		t.Fatal(err)
	}
	if !s.Calculate(afternoon).Celebrate {
		t.Error("changing the entry set should re-arm the celebration")
	}
}

func TestWorkingFromExtraction(t *testing.T) {
	s := loaded(t)
	ex := &fakeExtractor{resp: extract.Response{
		TimeEntries:        []extract.Candidate{{ClockIn: "9:00 AM", ClockOut: "12:00 PM"}},
		IsCurrentlyWorking: true,
		LastClockIn:        "4:00 PM",
	}}
	if err := s.Extract(context.Background(), ex); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !s.IsCurrentlyWorking() || s.LastClockIn() != "4:00 PM" {
		t.Fatalf("working = %v, lastClockIn = %q", s.IsCurrentlyWorking(), s.LastClockIn())
	}

	r := s.Calculate(afternoon)
	if r.Summary.TotalWorkedMinutes != 210 {
		t.Errorf("TotalWorkedMinutes = %d, want 210", r.Summary.TotalWorkedMinutes)
	}
	last := r.Summary.Entries[len(r.Summary.Entries)-1]
	if last.Origin != model.OriginSynthesized || last.DurationMinutes != 30 {
		t.Errorf("last entry = %+v, want 30 synthesized minutes", last)
	}
	if r.ExitTime != "09:00 PM" {
		t.Errorf("ExitTime = %q, want 09:00 PM", r.ExitTime)
	}
}

func TestExtractionDoesNotClearWorking(t *testing.T) {
	s := loaded(t)
	s.SetWorking(true, "8:00 AM")
	ex := &fakeExtractor{resp: extract.Response{IsCurrentlyWorking: false}}
	if err := s.Extract(context.Background(), ex); err != nil {
		t.Fatal(err)
	}
	if !s.IsCurrentlyWorking() || s.LastClockIn() != "8:00 AM" {
		t.Errorf("working = %v, lastClockIn = %q; want user values kept", s.IsCurrentlyWorking(), s.LastClockIn())
	}
}

func TestExtractFailure(t *testing.T) {
	tests := []struct {
		name string
		ex   *fakeExtractor
	}{
		{"transport", &fakeExtractor{err: &extract.UpstreamError{StatusCode: 503}}},
		{"error field", &fakeExtractor{resp: extract.Response{Error: "Could not parse structured data from AI response"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loaded(t)
			err := s.Extract(context.Background(), tt.ex)
			var upstream *extract.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if s.Phase() != PhaseFailed {
				t.Errorf("Phase = %s, want failed", s.Phase())
			}
			if s.Err() == nil {
				t.Error("Err should hold the failure")
			}
			if tt.ex.calls != 1 {
				t.Errorf("extractor called %d times, want exactly 1", tt.ex.calls)
			}
		})
	}
}

func TestExtractGating(t *testing.T) {
	s := New(nil)
	if err := s.Extract(context.Background(), &fakeExtractor{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("Extract without image = %v, want ErrNoImage", err)
	}

	s = loaded(t)
	var nested error
	ex := &fakeExtractor{}
	ex.during = func() {
		nested = s.Extract(context.Background(), &fakeExtractor{})
	}
	if err := s.Extract(context.Background(), ex); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !errors.Is(nested, ErrExtractionInFlight) {
		t.Errorf("nested Extract = %v, want ErrExtractionInFlight", nested)
	}
}

func TestLoadImageClearsExtracted(t *testing.T) {
	s := loaded(t)
	ex := &fakeExtractor{resp: extract.Response{TimeEntries: []extract.Candidate{{ClockIn: "9:00 AM", ClockOut: "10:00 AM"}}}}
	if err := s.Extract(context.Background(), ex); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadImage([]byte{1}, imageprep.Stats{}); err != nil {
		t.Fatal(err)
	}
	if len(s.Extracted()) != 0 {
		t.Errorf("Extracted = %+v, want cleared", s.Extracted())
	}
	if s.Phase() != PhaseImageLoaded {
		t.Errorf("Phase = %s", s.Phase())
	}
	if err := s.LoadImage(nil, imageprep.Stats{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("LoadImage(nil) = %v, want ErrNoImage", err)
	}
}

func TestManualEntryEditing(t *testing.T) {
	s := New(nil)
	if _, err := s.AddManual("9:00 AM", ""); !errors.Is(err, ErrIncompleteEntry) {
		t.Errorf("AddManual incomplete = %v, want ErrIncompleteEntry", err)
	}
	for _, pair := range [][2]string{{"9:00 AM", "10:00 AM"}, {"11:00 AM", "12:00 PM"}, {"1:00 PM", "2:00 PM"}} {
		if _, err := s.AddManual(pair[0], pair[1]); err != nil {
			t.Fatal(err)
		}
	}
	snapshot := s.Manual()
	if err := s.RemoveManual(1); err != nil {
		t.Fatalf("RemoveManual: %v", err)
	}
	got := s.Manual()
	if len(got) != 2 || got[1].ClockIn != "1:00 PM" {
		t.Errorf("Manual after remove = %+v", got)
	}
	if snapshot[1].ClockIn != "11:00 AM" {
		t.Error("earlier snapshot was mutated by RemoveManual")
	}
	if err := s.RemoveManual(5); !errors.Is(err, ErrNoSuchEntry) {
		t.Errorf("RemoveManual(5) = %v, want ErrNoSuchEntry", err)
	}
	if err := s.RemoveExtracted(0); !errors.Is(err, ErrNoSuchEntry) {
		t.Errorf("RemoveExtracted(0) = %v, want ErrNoSuchEntry", err)
	}
}

func TestSessionID(t *testing.T) {
	a, b := New(nil), New(nil)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("session ids should be unique and non-empty: %q, %q", a.ID(), b.ID())
	}
}
