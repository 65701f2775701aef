// Package completion derives a schedule's effective completion state from
// its progress rows. Nothing here is persisted; read paths recompute it so
// there is no cached aggregate to go stale under concurrent writes.
package completion

import "habitloop/internal/model"

// State is the derived completion view of one schedule.
type State struct {
	ProgressPercentage float64 `json:"progress_percentage"`
	Checked            bool    `json:"is_checked"`
	NaturallyComplete  bool    `json:"naturally_complete"`
}

// TotalLogged sums logged_time across rows. Rows with is_completed=false
// still count: partial time contributes to the elapsed total.
func TotalLogged(rows []model.Progress) int {
	total := 0
	for _, p := range rows {
		if p.LoggedTime != nil {
			total += *p.LoggedTime
		}
	}
	return total
}

// Derive computes the effective state from the bounded duration, the summed
// logged minutes and the manual status flag.
//
// Once totalLogged meets a positive duration the schedule is naturally
// complete and the checked state can no longer be retracted. A manual
// completion below that threshold stays checked but reports the real
// percentage and remains reversible.
func Derive(durationMinutes, totalLogged int, status model.ScheduleStatus) State {
	if durationMinutes > 0 && totalLogged >= durationMinutes {
		return State{ProgressPercentage: 100, Checked: true, NaturallyComplete: true}
	}

	pct := 0.0
	if durationMinutes > 0 {
		pct = float64(totalLogged) / float64(durationMinutes) * 100
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
	}

	if status == model.StatusCompleted {
		return State{ProgressPercentage: pct, Checked: true}
	}
	return State{ProgressPercentage: pct}
}

// DeriveFor is Derive applied to a schedule and its progress rows.
func DeriveFor(s *model.Schedule, rows []model.Progress) State {
	return Derive(s.Duration(), TotalLogged(rows), s.Status)
}
