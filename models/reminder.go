package models

// Reminder is the structured result of parsing a freeform reminder request.
type Reminder struct {
	Message         string `json:"message"`
	IntervalMinutes int    `json:"interval_minutes"`
	DurationHours   int    `json:"duration_hours"`
}

// ReminderPhase is the lifecycle state of a user's reminder loop. A user has
// at most one reminder at a time.
type ReminderPhase string

const (
	ReminderPhaseIdle    ReminderPhase = "idle"
	ReminderPhaseRunning ReminderPhase = "running"
)
