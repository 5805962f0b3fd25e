package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jacobreesgit/musicmemory/internal/charts"
	"github.com/jacobreesgit/musicmemory/internal/constants"
	"github.com/jacobreesgit/musicmemory/internal/httpapi/dto"
	"github.com/jacobreesgit/musicmemory/internal/player"
	"github.com/jacobreesgit/musicmemory/internal/store"
)

func (h *Handler) PlayerTick(w http.ResponseWriter, r *http.Request) {
	var req dto.TickRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	h.Clock.SetPosition(req.Position, req.Duration)
	h.Watcher.HandleTick(time.Now())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PlayerTrack(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	next := req.TrackInfo()
	if next.Zero() {
		h.Clock.ClearTrack()
	} else {
		h.Clock.SetTrack(next)
	}
	h.Watcher.HandleTrackChange(time.Now(), next)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PlayerState(w http.ResponseWriter, r *http.Request) {
	var req dto.StateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	h.Watcher.HandleStateChange(time.Now(), player.ParseState(req.State))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PlayerLifecycle(w http.ResponseWriter, r *http.Request) {
	var req dto.LifecycleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	now := time.Now()
	if player.LifecyclePhase(req.Phase) == player.PhaseForegrounded {
		h.Watcher.HandleForeground(now)
	} else {
		h.Watcher.HandleBackground(now)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	req, errs := dto.ParseChartRequest(
		chi.URLParam(r, "entityType"),
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
	)
	if len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	chart, err := h.Charts.Calculate(r.Context(), req.EntityType, req.Start, req.End)
	if err != nil {
		switch {
		case errors.Is(err, charts.ErrInvalidEntityType),
			errors.Is(err, charts.ErrStartAfterEnd),
			errors.Is(err, charts.ErrEndInFuture),
			errors.Is(err, charts.ErrRangeTooLarge):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.Logger.Error("Failed to calculate chart", "entity_type", req.EntityType, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to calculate chart")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, chart)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := h.Sessions.Current()
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	if start != "" || end != "" {
		startTime, endTime, errs := dto.ParseDateRange(start, end)
		if len(errs) > 0 {
			h.respondValidation(w, dto.ToMap(errs))
			return
		}
		events, err := h.Store.QueryEvents(startTime, endOfDay(endTime))
		if err != nil {
			h.Logger.Error("Failed to query events", "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to query history")
			return
		}
		h.respondJSON(w, http.StatusOK, events)
		return
	}

	limit := constants.MaxHistoryItems
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	events, err := h.Store.RecentEvents(limit)
	if err != nil {
		h.Logger.Error("Failed to query recent events", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	h.respondJSON(w, http.StatusOK, events)
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	startTime, endTime, errs := dto.ParseDateRange(
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
	)
	if len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	overview, err := h.Store.QueryOverview(startTime, endOfDay(endTime))
	if err != nil {
		h.Logger.Error("Failed to query overview", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to query overview")
		return
	}
	h.respondJSON(w, http.StatusOK, overview)
}

// endOfDay widens an inclusive end date to the last instant of that day, so
// an event stamped exactly at the following midnight stays out of the range.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func (h *Handler) LibraryScan(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Scanner.Scan(r.Context())
	if err != nil {
		h.Logger.Error("Library scan failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "library scan failed")
		return
	}

	if err := h.SettingsRepo.Set(store.SettingLastLibraryScan, time.Now().Format(time.RFC3339)); err != nil {
		h.Logger.Error("Failed to record scan time", "error", err)
	}
	h.respondJSON(w, http.StatusOK, stats)
}
