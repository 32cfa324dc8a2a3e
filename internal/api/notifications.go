package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

// defaultListLimit caps list endpoints without an explicit limit.
const defaultListLimit = 50

// NotificationsHandler serves the notification inbox and the activity log.
type NotificationsHandler struct {
	DB *sql.DB
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, 500)
}

// List handles GET /api/notifications?unread=true.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notes, err := store.ListNotifications(r.Context(), h.DB, user.ID, user.Role == model.RoleAdmin, unread, listLimit(r))
	if err != nil {
		writeError(w, err, "failed to list notifications")
		return
	}
	if notes == nil {
		notes = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, notes)
}

// MarkRead handles PUT /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if err := store.MarkNotificationRead(r.Context(), h.DB, r.PathValue("id"), user.ID, user.Role == model.RoleAdmin); err != nil {
		writeError(w, err, "failed to update notification")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification read"})
}

// MarkAllRead handles PUT /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if err := store.MarkAllNotificationsRead(r.Context(), h.DB, user.ID, user.Role == model.RoleAdmin); err != nil {
		writeError(w, err, "failed to update notifications")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notifications read"})
}

// Activity handles GET /api/activity?user=&limit=. Users with
// view_user_activity see everyone's entries; others only their own.
func (h *NotificationsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	userID := user.ID
	if model.Can(user.Role, model.PermViewUserActivity) {
		userID = 0
		if s := r.URL.Query().Get("user"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid user id")
				return
			}
			userID = id
		}
	}

	entries, err := store.ListActivity(r.Context(), h.DB, userID, listLimit(r))
	if err != nil {
		writeError(w, err, "failed to list activity")
		return
	}
	if entries == nil {
		entries = []model.Activity{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
