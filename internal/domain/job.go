package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates try-on job lifecycle states as reported by the backend.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// DefaultFailureMessage is shown when a failed job carries no error message.
const DefaultFailureMessage = "Try-on failed. Please try again."

// ParseJobStatus converts a wire value into a JobStatus. Only the four
// lifecycle values are accepted.
func ParseJobStatus(raw string) (JobStatus, error) {
	switch s := JobStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case JobStatusQueued, JobStatusRunning, JobStatusSucceeded, JobStatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// Terminal reports whether no further transitions happen without a new submission.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// JobState is the closed set of job states. Each variant only carries the
// data that is meaningful for it.
type JobState interface {
	Status() JobStatus
	isJobState()
}

// Queued is a job waiting for a worker.
type Queued struct{}

// Running is a job being processed. EstimateSeconds is a hint for progress
// display only; zero means unknown.
type Running struct {
	EstimateSeconds int
}

// Succeeded is a finished job with its composite image location.
type Succeeded struct {
	ResultURL string
}

// Failed is a job the backend gave up on.
type Failed struct {
	Message string
}

func (Queued) Status() JobStatus    { return JobStatusQueued }
func (Running) Status() JobStatus   { return JobStatusRunning }
func (Succeeded) Status() JobStatus { return JobStatusSucceeded }
func (Failed) Status() JobStatus    { return JobStatusFailed }

func (Queued) isJobState()    {}
func (Running) isJobState()   {}
func (Succeeded) isJobState() {}
func (Failed) isJobState()    {}

// NewJobState builds the variant for status from the optional wire fields.
// Fields that do not belong to the status are dropped.
func NewJobState(status JobStatus, resultURL, errorMessage string, estimateSeconds int) (JobState, error) {
	switch status {
	case JobStatusQueued:
		return Queued{}, nil
	case JobStatusRunning:
		if estimateSeconds < 0 {
			estimateSeconds = 0
		}
		return Running{EstimateSeconds: estimateSeconds}, nil
	case JobStatusSucceeded:
		return Succeeded{ResultURL: strings.TrimSpace(resultURL)}, nil
	case JobStatusFailed:
		msg := strings.TrimSpace(errorMessage)
		if msg == "" {
			msg = DefaultFailureMessage
		}
		return Failed{Message: msg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, string(status))
	}
}

// TryOnJob is one immutable snapshot of a server-side try-on job. Every
// status fetch yields a new value; snapshots are never edited in place.
type TryOnJob struct {
	ID              string
	State           JobState
	SourceProductID string
	Prompt          string
	// EstimatedProcessingSeconds is reported by the backend on every status,
	// not only while running. Zero means no estimate.
	EstimatedProcessingSeconds int
	CreatedAt                  time.Time
	CompletedAt                *time.Time
}

// Status returns the lifecycle status of the snapshot.
func (j TryOnJob) Status() JobStatus {
	if j.State == nil {
		return ""
	}
	return j.State.Status()
}

// Terminal reports whether the snapshot is SUCCEEDED or FAILED.
func (j TryOnJob) Terminal() bool {
	return j.Status().Terminal()
}

// ResultURL returns the result image location of a succeeded job.
func (j TryOnJob) ResultURL() (string, bool) {
	s, ok := j.State.(Succeeded)
	if !ok {
		return "", false
	}
	return s.ResultURL, true
}

// ErrorMessage returns the failure message of a failed job, falling back to
// DefaultFailureMessage when the backend sent none.
func (j TryOnJob) ErrorMessage() (string, bool) {
	f, ok := j.State.(Failed)
	if !ok {
		return "", false
	}
	if strings.TrimSpace(f.Message) == "" {
		return DefaultFailureMessage, true
	}
	return f.Message, true
}

// Estimate returns the processing time hint, preferring the running variant.
func (j TryOnJob) Estimate() int {
	if r, ok := j.State.(Running); ok && r.EstimateSeconds > 0 {
		return r.EstimateSeconds
	}
	return j.EstimatedProcessingSeconds
}
