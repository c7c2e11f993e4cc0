package domain

import "time"

// EventKind enumerates try-on lifecycle events recorded by telemetry.
type EventKind string

const (
	EventJobSubmitted    EventKind = "job_submitted"
	EventJobSucceeded    EventKind = "job_succeeded"
	EventJobFailed       EventKind = "job_failed"
	EventSubmitFailed    EventKind = "submit_failed"
	EventImageUploaded   EventKind = "image_uploaded"
	EventSessionStarted  EventKind = "session_started"
	EventSessionTimedOut EventKind = "session_timed_out"
)

// TryOnDaily stores aggregated try-on metrics for a specific day.
type TryOnDaily struct {
	Day               time.Time
	Submitted         int
	Succeeded         int
	Failed            int
	SubmitFailed      int
	ProcessingSeconds int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
