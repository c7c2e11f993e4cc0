package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/session"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/storage"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/telemetry"
)

// Catalog is the read side of the try-on backend.
type Catalog interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListJobs(ctx context.Context) ([]domain.TryOnJob, error)
	DownloadResult(ctx context.Context, location string) ([]byte, string, error)
}

// UsageTracker records storefront actions that are not job transitions.
type UsageTracker interface {
	ImageUploaded(productID string, size int)
	SessionStarted(sessionID string)
}

type App struct {
	Config    *infra.Config
	Logger    infra.Logger
	Catalog   Catalog
	Sessions  *session.Registry
	Logs      *telemetry.Ring
	Tracker   UsageTracker
	Analytics domain.AnalyticsRepository
	Store     *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// session resolves the {id} URL parameter, writing a 404 when unknown.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := a.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	return s, true
}

// backendError maps a catalog failure onto a response.
func (a *App) backendError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", what+" not found")
	case errors.Is(err, context.Canceled):
		a.error(w, http.StatusRequestTimeout, "canceled", "request canceled")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handlers: backend request failed")
		a.error(w, http.StatusBadGateway, "backend_unavailable", "failed to load "+what)
	}
}

func (a *App) maxUploadBytes() int64 {
	if a.Config != nil && a.Config.MaxUploadBytes > 0 {
		return a.Config.MaxUploadBytes
	}
	return 10 << 20
}
