package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/middleware"
)

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Create(middleware.LocaleFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrClosed) {
			a.error(w, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to create session")
		return
	}
	if a.Tracker != nil {
		a.Tracker.SessionStarted(s.ID)
	}
	a.json(w, http.StatusCreated, map[string]any{
		"id":        s.ID,
		"locale":    s.Locale,
		"createdAt": s.CreatedAt,
	})
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) Notifications(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": s.Inbox.Drain()})
}
