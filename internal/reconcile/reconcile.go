package reconcile

import (
	"time"

	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

// InProgressSuffix marks the clock-out of the synthesized entry.
const InProgressSuffix = " (in progress)"

// Input is a snapshot of everything the reconciler needs.
type Input struct {
	Manual             []model.TimeEntry
	Extracted          []model.TimeEntry
	IsCurrentlyWorking bool
	LastClockIn        string
}

// Reconcile merges manual and extracted entries into a fresh WorkSummary.
// When a session is still open, a synthesized entry covering the time from
// LastClockIn until now is appended, provided that time is positive.
func Reconcile(in Input, now time.Time) model.WorkSummary {
	entries := make([]model.TimeEntry, 0, len(in.Manual)+len(in.Extracted)+1)
	entries = append(entries, in.Manual...)
	entries = append(entries, in.Extracted...)

	total := 0
	for _, e := range entries {
		total += e.DurationMinutes
	}

	summary := model.WorkSummary{
		Date:               timecalc.FormatDate(now),
		IsCurrentlyWorking: in.IsCurrentlyWorking,
	}
	if in.IsCurrentlyWorking {
		summary.LastClockIn = in.LastClockIn
	}

	if in.IsCurrentlyWorking && in.LastClockIn != "" {
		session := timecalc.MinutesOfDay(now) - timecalc.ParseClock(in.LastClockIn)
		if session > 0 {
			entries = append(entries, model.NewSynthesized(
				in.LastClockIn,
				timecalc.FormatClock(now)+InProgressSuffix,
				session,
			))
			total += session
		}
	}

	summary.Entries = entries
	summary.TotalWorkedMinutes = total
	return summary
}
