package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownStatus = errors.New("unknown job status")
	ErrClosed        = errors.New("controller closed")
	ErrSuperseded    = errors.New("superseded by a newer request")
)

// ValidationError reports missing or malformed inputs detected before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// SubmissionError reports a failed job creation. Status is the HTTP status
// returned by the backend, or 0 for transport failures.
type SubmissionError struct {
	Status  int
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return "submit try-on: " + e.Message
	}
	if e.Err != nil {
		return "submit try-on: " + e.Err.Error()
	}
	return "submit try-on: failed"
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user in a one-shot notification.
func (e *SubmissionError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Failed to start visualization"
}

// PollTransientError wraps a failed status fetch. The poller retries on the
// next tick.
type PollTransientError struct {
	JobID string
	Err   error
}

func (e *PollTransientError) Error() string {
	return fmt.Sprintf("poll job %s: %v", e.JobID, e.Err)
}

func (e *PollTransientError) Unwrap() error { return e.Err }

// JobFailedError is a terminal FAILED status reported by the backend.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("try-on job %s failed: %s", e.JobID, e.Message)
}
