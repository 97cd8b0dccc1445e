package status

import (
	"time"

	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

// TargetMinutes is the fixed daily work goal (8 hours).
const TargetMinutes = 8 * 60

// LeaveNow replaces the projected exit time once nothing remains.
const LeaveNow = "You can leave now!"

// Calculate compares totalWorked against the daily target.
func Calculate(totalWorked int) model.StatusResult {
	if totalWorked >= TargetMinutes {
		return model.StatusResult{
			OvertimeMinutes: totalWorked - TargetMinutes,
			Status:          model.StatusCompleted,
		}
	}
	return model.StatusResult{
		RemainingMinutes: TargetMinutes - totalWorked,
		Status:           model.StatusPending,
	}
}

// ExitTime projects when the target will be reached if work continues from
// now. It is empty unless the summary is still in progress and pending.
func ExitTime(summary model.WorkSummary, result model.StatusResult, now time.Time) string {
	if !summary.IsCurrentlyWorking || result.Status != model.StatusPending {
		return ""
	}
	if result.RemainingMinutes <= 0 {
		return LeaveNow
	}
	return timecalc.FormatClock(now.Add(time.Duration(result.RemainingMinutes) * time.Minute))
}

// Guard lets the "target completed" notification fire once per entry set.
type Guard struct {
	notified bool
}

// Observe reports whether result is the first Completed status seen since
// the guard was created or last reset.
func (g *Guard) Observe(result model.StatusResult) bool {
	if result.Status != model.StatusCompleted || g.notified {
		return false
	}
	g.notified = true
	return true
}

// Reset re-arms the guard. Call it when the underlying entries change.
func (g *Guard) Reset() {
	g.notified = false
}

// Notified reports whether the guard has already fired.
func (g *Guard) Notified() bool {
	return g.notified
}
