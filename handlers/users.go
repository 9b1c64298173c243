package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

func userJSON(rec *core.Record) map[string]any {
	return map[string]any{
		"id":       rec.Id,
		"email":    rec.Email(),
		"name":     rec.GetString("name"),
		"role":     rec.GetString("role"),
		"clientId": rec.GetString("client"),
		"isActive": rec.GetBool("is_active"),
		"verified": rec.Verified(),
		"created":  rec.GetDateTime("created"),
	}
}

// HandleUserList lists shop users, optionally for one ?role=.
func HandleUserList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		filter, params := "1 = 1", map[string]any{}
		if role := e.Request.URL.Query().Get("role"); role != "" {
			filter = "role = {:role}"
			params["role"] = role
		}
		records, err := app.FindRecordsByFilter("users", filter, "email", 0, 0, params)
		if err != nil {
			log.Printf("users: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load users")
		}
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			out = append(out, userJSON(r))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleUserSave creates a user, or updates the one named by {id}. On update
// an empty password keeps the current one.
func HandleUserSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")

		var in services.UserInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Normalize()
		if err := in.Validate(id == ""); err != nil {
			return validationError(e, "users", err)
		}
		if in.ClientID != "" {
			if _, err := app.FindRecordById("clients", in.ClientID); err != nil {
				return e.JSON(http.StatusBadRequest, map[string]any{
					"error":  "Please fix the highlighted fields",
					"fields": map[string]string{"clientId": "client not found"},
				})
			}
		}

		rec, status, err := findOrNewRecord(app, "users", id)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "User not found")
		}
		if other, err := app.FindAuthRecordByEmail("users", in.Email); err == nil && other.Id != rec.Id {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"email": "email already in use"},
			})
		}

		// an admin cannot lock themselves out
		if me, ok := currentUser(e); ok && me.ID == rec.Id {
			if in.Role != string(services.RoleAdmin) || (in.IsActive != nil && !*in.IsActive) {
				return jsonError(e, http.StatusBadRequest, "You cannot remove your own admin access")
			}
		}

		rec.SetEmail(in.Email)
		if in.Password != "" {
			rec.SetPassword(in.Password)
		}
		if id == "" {
			rec.SetVerified(true)
		}
		rec.Set("name", in.Name)
		rec.Set("role", in.Role)
		rec.Set("client", in.ClientID)
		switch {
		case in.IsActive != nil:
			rec.Set("is_active", *in.IsActive)
		case id == "":
			rec.Set("is_active", true)
		}

		if err := app.Save(rec); err != nil {
			log.Printf("users: could not save %s: %v", in.Email, err)
			return validationError(e, "users", err)
		}
		return e.JSON(status, userJSON(rec))
	}
}
