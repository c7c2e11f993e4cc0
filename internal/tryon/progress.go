package tryon

import (
	"fmt"
	"math"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

// DefaultEstimateSeconds is assumed when the backend sends no estimate.
const DefaultEstimateSeconds = 60

// runningCap keeps the bar below 100% until the job actually succeeds.
const runningCap = 0.9

// EstimateProgress returns the target progress percentage for a snapshot.
// It is presentation only and never drives transitions.
func EstimateProgress(job domain.TryOnJob, elapsedSeconds int) float64 {
	switch job.Status() {
	case domain.JobStatusSucceeded:
		return 100
	case domain.JobStatusRunning:
		estimate := job.Estimate()
		if estimate <= 0 {
			estimate = DefaultEstimateSeconds
		}
		if elapsedSeconds < 0 {
			elapsedSeconds = 0
		}
		return math.Min(float64(elapsedSeconds)/float64(estimate), runningCap) * 100
	default:
		return 0
	}
}

// ProgressMeter smooths the displayed value: each advance moves at most one
// point toward the target and the value never goes backwards.
type ProgressMeter struct {
	value float64
}

// Advance moves the meter toward the target for job and returns the value.
func (m *ProgressMeter) Advance(job domain.TryOnJob, elapsedSeconds int) float64 {
	switch job.Status() {
	case domain.JobStatusSucceeded:
		m.value = 100
	case domain.JobStatusRunning:
		target := EstimateProgress(job, elapsedSeconds)
		if m.value < target {
			m.value = math.Min(m.value+1, target)
		}
	}
	return m.value
}

// Complete pins the meter at 100%.
func (m *ProgressMeter) Complete() { m.value = 100 }

// Reset returns the meter to zero.
func (m *ProgressMeter) Reset() { m.value = 0 }

// Value returns the current displayed percentage.
func (m *ProgressMeter) Value() float64 { return m.value }

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
