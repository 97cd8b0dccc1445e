package extract

import (
	"strings"

	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

const minutesPerDay = 24 * 60

// Adapt keeps the candidates that describe a complete, plausible session and
// turns them into extracted entries. Rejected candidates are dropped silently.
func Adapt(candidates []Candidate) []model.TimeEntry {
	entries := make([]model.TimeEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.ClockIn == "" || c.ClockOut == "" {
			continue
		}
		// The service marks open sessions as "MISSING" instead of a time.
		if strings.Contains(strings.ToLower(c.ClockOut), "missing") {
			continue
		}
		d := timecalc.Duration(c.ClockIn, c.ClockOut)
		if d <= 0 || d >= minutesPerDay {
			continue
		}
		entries = append(entries, model.NewEntry(c.ClockIn, c.ClockOut, model.OriginExtracted))
	}
	return entries
}
