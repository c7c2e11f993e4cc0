package handlers

import (
	"errors"
	"net/http"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	if a.Analytics == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "analytics are not configured")
		return
	}
	summary, err := a.Analytics.GetSummary(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no analytics recorded yet")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: load stats")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"day":                summary.Day.Format("2006-01-02"),
		"submitted":          summary.Submitted,
		"succeeded":          summary.Succeeded,
		"failed":             summary.Failed,
		"submit_failed":      summary.SubmitFailed,
		"processing_seconds": summary.ProcessingSeconds,
		"updated_at":         summary.UpdatedAt,
	})
}
