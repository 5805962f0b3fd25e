package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jacobreesgit/musicmemory/internal/charts"
	"github.com/jacobreesgit/musicmemory/internal/library"
	"github.com/jacobreesgit/musicmemory/internal/logger"
	"github.com/jacobreesgit/musicmemory/internal/player"
	"github.com/jacobreesgit/musicmemory/internal/store"
	"github.com/jacobreesgit/musicmemory/internal/watcher"
)

type Handler struct {
	Clock        *player.RemoteClock
	Watcher      *watcher.Watcher
	Sessions     *watcher.SessionContext
	Charts       *charts.Service
	Store        *store.DB
	Scanner      *library.Scanner
	SettingsRepo *store.SettingsRepo
	Logger       *logger.Logger
}

func NewHandler(clock *player.RemoteClock, w *watcher.Watcher, sessions *watcher.SessionContext, charts *charts.Service, db *store.DB, scanner *library.Scanner, sr *store.SettingsRepo) *Handler {
	return &Handler{
		Clock:        clock,
		Watcher:      w,
		Sessions:     sessions,
		Charts:       charts,
		Store:        db,
		Scanner:      scanner,
		SettingsRepo: sr,
		Logger:       logger.Default().WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/player/tick", h.PlayerTick)
		r.Post("/player/track", h.PlayerTrack)
		r.Post("/player/state", h.PlayerState)
		r.Post("/player/lifecycle", h.PlayerLifecycle)

		r.Get("/charts/{entityType}", h.GetChart)
		r.Get("/session", h.GetSession)
		r.Get("/history", h.GetHistory)
		r.Get("/overview", h.GetOverview)

		r.Post("/library/scan", h.LibraryScan)
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) respondValidation(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": errs,
	})
}

// decodeJSON rejects malformed bodies before the handler sees them.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
