package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"printshop/services"
)

// HandleDashboard returns the landing summary for the user's role.
func HandleDashboard(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		user, ok := currentUser(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Please sign in")
		}

		d, err := services.BuildDashboard(e.Request.Context(), app, services.DashboardViewer{
			UserID:   user.ID,
			Role:     user.Role,
			ClientID: user.ClientID,
		}, time.Now())
		if err != nil {
			log.Printf("dashboard: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load dashboard")
		}
		return e.JSON(http.StatusOK, d)
	}
}

// HandleNotificationList lists the user's notifications, newest first.
// Query: ?unread=true&limit=N (default 50).
func HandleNotificationList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		user, ok := currentUser(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Please sign in")
		}
		q := e.Request.URL.Query()

		limit := cast.ToInt(q.Get("limit"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		items, err := services.ListNotifications(app, user.ID, user.Role, q.Get("unread") == "true", limit, time.Now())
		if err != nil {
			log.Printf("notifications: list for %s: %v", user.ID, err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load notifications")
		}
		return e.JSON(http.StatusOK, items)
	}
}

type readRequest struct {
	IDs []string `json:"ids"`
}

// HandleNotificationsRead marks the posted ids read; an empty list marks all.
func HandleNotificationsRead(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		user, ok := currentUser(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Please sign in")
		}

		var req readRequest
		if e.Request.ContentLength != 0 {
			if err := e.BindBody(&req); err != nil {
				return jsonError(e, http.StatusBadRequest, "Invalid request body")
			}
		}
		if id := e.Request.PathValue("id"); id != "" {
			req.IDs = []string{id}
		}

		n, err := services.MarkNotificationsRead(app, user.ID, user.Role, req.IDs)
		if err != nil {
			log.Printf("notifications: mark read for %s: %v", user.ID, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, map[string]int{"marked": n})
	}
}
