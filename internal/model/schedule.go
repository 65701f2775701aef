package model

import "time"

type ScheduleStatus string

const (
	StatusPlanned   ScheduleStatus = "planned"
	StatusCompleted ScheduleStatus = "completed"
	StatusSkipped   ScheduleStatus = "skipped"
)

// Schedule is one concrete dated occurrence of a habit. Rows come either
// from a repeat expansion or from a single custom entry.
type Schedule struct {
	ID              int            `json:"id"`
	UserID          int            `json:"user_id"`
	HabitID         int            `json:"habit_id"`
	Date            time.Time      `json:"date"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	DurationMinutes *int           `json:"duration_minutes,omitempty"`
	Status          ScheduleStatus `json:"status"`
	IsCustom        bool           `json:"is_custom"`
	Notes           *string        `json:"notes,omitempty"`
	ParticipantIDs  []int          `json:"participant_ids"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Duration returns the bounded length in minutes, 0 when neither
// duration_minutes nor end_time resolves one.
func (s *Schedule) Duration() int {
	if s.DurationMinutes != nil && *s.DurationMinutes > 0 {
		return *s.DurationMinutes
	}
	if s.EndTime != nil && s.EndTime.After(s.StartTime) {
		return int(s.EndTime.Sub(s.StartTime).Minutes())
	}
	return 0
}

// HasParticipant reports whether userID is listed as a participant.
func (s *Schedule) HasParticipant(userID int) bool {
	for _, id := range s.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
