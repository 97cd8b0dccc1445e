package model

import "github.com/Tiliavir/hrms-time-calc/internal/timecalc"

// Origin records where a time entry came from.
type Origin string

const (
	OriginManual      Origin = "manual"
	OriginExtracted   Origin = "extracted"
	OriginSynthesized Origin = "synthesized"
)

// TimeEntry is a single clock-in/clock-out pair. DurationMinutes is derived
// once at construction and never changed afterwards.
type TimeEntry struct {
	ClockIn         string `json:"clockIn"`
	ClockOut        string `json:"clockOut"`
	DurationMinutes int    `json:"durationMinutes"`
	Origin          Origin `json:"origin"`
}

// NewEntry builds an entry whose duration is computed from its clock strings.
func NewEntry(clockIn, clockOut string, origin Origin) TimeEntry {
	return TimeEntry{
		ClockIn:         clockIn,
		ClockOut:        clockOut,
		DurationMinutes: timecalc.Duration(clockIn, clockOut),
		Origin:          origin,
	}
}

// NewSynthesized builds the in-progress entry for a still-open session. Its
// duration is live elapsed time rather than clock arithmetic.
func NewSynthesized(clockIn, clockOut string, minutes int) TimeEntry {
	return TimeEntry{
		ClockIn:         clockIn,
		ClockOut:        clockOut,
		DurationMinutes: minutes,
		Origin:          OriginSynthesized,
	}
}

// WorkSummary is the reconciled view of one day's entries.
type WorkSummary struct {
	Date               string      `json:"date"`
	Entries            []TimeEntry `json:"entries"`
	TotalWorkedMinutes int         `json:"totalWorkedMinutes"`
	IsCurrentlyWorking bool        `json:"isCurrentlyWorking"`
	LastClockIn        string      `json:"lastClockIn,omitempty"`
}

// Status is the completion state against the daily target.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// StatusResult compares worked time against the daily target.
type StatusResult struct {
	RemainingMinutes int    `json:"remainingMinutes"`
	OvertimeMinutes  int    `json:"overtimeMinutes"`
	Status           Status `json:"status"`
}
