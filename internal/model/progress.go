package model

import "time"

// Progress is one log entry against a schedule. A schedule may accumulate
// several; partial time counts toward completion even when is_completed is
// false on the row.
type Progress struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	ScheduleID  int       `json:"schedule_id"`
	Date        time.Time `json:"date"`
	LoggedTime  *int      `json:"logged_time,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
