package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/notify"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationLister reads the notifications delivered to a recipient.
type NotificationLister interface {
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]notify.Notification, error)
}

type notificationsHandler struct {
	store NotificationLister
}

func newNotificationsHandler(store NotificationLister) *notificationsHandler {
	return &notificationsHandler{store: store}
}

// List handles GET /api/v1/notifications?limit=.
func (h *notificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	limit := defaultNotificationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	items, err := h.store.ListForRecipient(r.Context(), id.Profile.ID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"count":         len(items),
	})
}
