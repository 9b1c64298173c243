package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

// HandleMe returns the signed-in user with their menu.
func HandleMe(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		user, ok := currentUser(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Please sign in")
		}

		resp := map[string]any{
			"user": user,
			"menu": services.MenuFor(user.Role),
		}
		if user.ClientID != "" {
			if client, err := app.FindRecordById("clients", user.ClientID); err == nil {
				resp["client"] = map[string]any{
					"id":         client.Id,
					"name":       client.GetString("name"),
					"clientCode": client.GetString("client_code"),
				}
			}
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// HandleMenu returns the menu entries for the signed-in user's role.
func HandleMenu(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		user, ok := currentUser(e)
		if !ok {
			return jsonError(e, http.StatusUnauthorized, "Please sign in")
		}
		return e.JSON(http.StatusOK, services.MenuFor(user.Role))
	}
}

type reauthRequest struct {
	Password string `json:"password"`
}

// HandleReauthenticate confirms the signed-in user's password before a
// sensitive change. It never issues a new token.
func HandleReauthenticate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if e.Auth == nil {
			return jsonError(e, http.StatusUnauthorized, "Please sign in")
		}

		var body reauthRequest
		if err := e.BindBody(&body); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(body.Password) == "" {
			return jsonError(e, http.StatusBadRequest, "Password is required")
		}
		if !e.Auth.ValidatePassword(body.Password) {
			return jsonError(e, http.StatusUnauthorized, "Incorrect password")
		}
		return e.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
}
