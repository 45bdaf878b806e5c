package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/event"
)

// eventsHandler groups event and roster HTTP handlers.
type eventsHandler struct {
	svc *event.Service
}

func newEventsHandler(svc *event.Service) *eventsHandler {
	return &eventsHandler{svc: svc}
}

// CreateEvent handles POST /api/v1/events.
func (h *eventsHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req event.CreateEventInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
		return
	}

	e, err := h.svc.AddEvent(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "create", "event", e.ID, "status", e.Status)
	writeJSON(w, http.StatusCreated, e)
}

// ListEvents handles GET /api/v1/events?status=. The status defaults to OPEN.
func (h *eventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	status := event.StatusOpen
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		status = event.Status(strings.ToUpper(v))
	}

	events, err := h.svc.ListByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent handles GET /api/v1/events/{id}.
func (h *eventsHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Join handles POST /api/v1/events/{id}/participants.
func (h *eventsHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	eventID := chi.URLParam(r, "id")

	e, err := h.svc.Join(r.Context(), id, eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "join", "event", eventID)
	writeJSON(w, http.StatusOK, e)
}

// Leave handles DELETE /api/v1/events/{id}/participants.
func (h *eventsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	eventID := chi.URLParam(r, "id")

	e, err := h.svc.Leave(r.Context(), id, eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "leave", "event", eventID)
	writeJSON(w, http.StatusOK, e)
}

// ChangeStatus handles PUT /api/v1/events/{id}/status.
func (h *eventsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	eventID := chi.URLParam(r, "id")

	var req event.ChangeStatusInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to parse request body")
		return
	}

	e, err := h.svc.ChangeStatus(r.Context(), id, eventID, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	auditLog(r, "change_status", "event", eventID, "status", e.Status)
	writeJSON(w, http.StatusOK, e)
}
