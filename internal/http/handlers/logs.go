package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/telemetry"
)

func (a *App) ListLogs(w http.ResponseWriter, r *http.Request) {
	entries := a.Logs.Entries()
	if level := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("level"))); level != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Level == level {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	a.json(w, http.StatusOK, map[string]any{"items": entries})
}

// IngestLog accepts a client side log entry. Only WARN and ERROR entries are
// kept.
func (a *App) IngestLog(w http.ResponseWriter, r *http.Request) {
	var entry telemetry.Entry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&entry); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid log entry")
		return
	}
	level := strings.ToUpper(strings.TrimSpace(entry.Level))
	if level != "WARN" && level != "ERROR" {
		a.error(w, http.StatusUnprocessableEntity, "unsupported_level", "only WARN and ERROR entries are accepted")
		return
	}
	if strings.TrimSpace(entry.Message) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "message required")
		return
	}
	if entry.UserAgent == "" {
		entry.UserAgent = r.UserAgent()
	}
	a.Logs.Add(entry)
	a.Logger.Info().Str("client_level", level).Str("url", entry.URL).Msg("client: " + entry.Message)
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) ClearLogs(w http.ResponseWriter, r *http.Request) {
	a.Logs.Clear()
	w.WriteHeader(http.StatusNoContent)
}
