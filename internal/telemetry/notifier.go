// Package telemetry records try-on lifecycle events as structured logs, a
// bounded recent-entry buffer and daily analytics counters.
package telemetry

import (
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

// LogNotifier writes one structured log line per lifecycle event.
type LogNotifier struct {
	logger infra.Logger
}

// NewLogNotifier wraps logger.
func NewLogNotifier(logger infra.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "tryon").Logger()}
}

func (n *LogNotifier) OnJobSubmitted(ev tryon.Event) {
	n.logger.Info().
		Str("action", "visualization_start").
		Str("product_id", ev.ProductID).
		Str("job_id", ev.JobID).
		Msg("Visualization started")
}

func (n *LogNotifier) OnJobSucceeded(ev tryon.Event) {
	n.logger.Info().
		Str("action", "visualization_complete").
		Str("product_id", ev.ProductID).
		Str("job_id", ev.JobID).
		Int("processing_time", ev.ElapsedSeconds).
		Msg("Visualization completed")
}

func (n *LogNotifier) OnJobFailed(ev tryon.Event) {
	n.logger.Error().
		Str("action", "visualization_error").
		Str("product_id", ev.ProductID).
		Str("job_id", ev.JobID).
		Str("error", ev.Message).
		Bool("submission", ev.Kind == domain.EventSubmitFailed).
		Msg("Visualization failed")
}

// ImageUploaded records an accepted user image.
func (n *LogNotifier) ImageUploaded(productID string, size int) {
	n.logger.Info().
		Str("action", "image_upload").
		Str("product_id", productID).
		Int("image_size", size).
		Msg("Customer image uploaded")
}

// SessionStarted records a new try-on session.
func (n *LogNotifier) SessionStarted(sessionID string) {
	n.logger.Info().
		Str("action", "try_on_start").
		Str("session_id", sessionID).
		Msg("Try-on session started")
}

var _ tryon.Notifier = (*LogNotifier)(nil)
