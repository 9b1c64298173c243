package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

// HandleClientList lists clients filtered by ?q= (code or name), ?type= and ?active=.
func HandleClientList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()

		filters := []string{"1 = 1"}
		params := dbx.Params{}
		if text := strings.TrimSpace(q.Get("q")); text != "" {
			filters = append(filters, "(client_code ~ {:q} || name ~ {:q})")
			params["q"] = text
		}
		if typ := q.Get("type"); typ != "" {
			filters = append(filters, "client_type = {:type}")
			params["type"] = typ
		}
		switch q.Get("active") {
		case "true":
			filters = append(filters, "is_active = true")
		case "false":
			filters = append(filters, "is_active = false")
		}

		records, err := app.FindRecordsByFilter("clients", strings.Join(filters, " && "), "name", 0, 0, params)
		if err != nil {
			log.Printf("clients: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load clients")
		}
		return e.JSON(http.StatusOK, recordsJSON(records))
	}
}

// HandleClientGet returns one client.
func HandleClientGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		client, err := app.FindRecordById("clients", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Client not found")
		}
		if scope := clientScope(e); scope != "" && scope != client.Id {
			return jsonError(e, http.StatusNotFound, "Client not found")
		}
		return e.JSON(http.StatusOK, client.PublicExport())
	}
}

// HandleClientCreate saves a new client from a JSON ClientInput.
func HandleClientCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ClientInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Normalize()
		if err := in.Validate(); err != nil {
			return validationError(e, "clients", err)
		}
		if clientCodeTaken(app, in.ClientCode, "") {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"clientCode": "client code already exists"},
			})
		}

		col, err := app.FindCollectionByNameOrId("clients")
		if err != nil {
			log.Printf("clients: could not find clients collection: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		record := core.NewRecord(col)
		applyClientInput(record, in)
		if in.IsActive == nil {
			record.Set("is_active", true)
		}
		if err := app.Save(record); err != nil {
			log.Printf("clients: could not save client: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusCreated, record.PublicExport())
	}
}

// HandleClientUpdate replaces the editable fields of a client.
func HandleClientUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := app.FindRecordById("clients", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Client not found")
		}

		var in services.ClientInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Normalize()
		if err := in.Validate(); err != nil {
			return validationError(e, "clients", err)
		}
		if clientCodeTaken(app, in.ClientCode, record.Id) {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"clientCode": "client code already exists"},
			})
		}

		typeChanged := record.GetString("client_type") != in.ClientType
		applyClientInput(record, in)
		if err := app.Save(record); err != nil {
			log.Printf("clients: could not update client %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		// tier membership depends on the client type
		if typeChanged {
			if in.ClientType != services.ClientTypeB2B {
				record.Set("loyalty_tier", "")
				if err := app.Save(record); err != nil {
					log.Printf("clients: could not clear tier of %s: %v", record.Id, err)
				}
			} else if _, err := services.SyncClientLoyalty(app, record.Id); err != nil {
				log.Printf("clients: loyalty sync for %s failed: %v", record.Id, err)
			}
			if fresh, err := app.FindRecordById("clients", record.Id); err == nil {
				record = fresh
			}
		}
		return e.JSON(http.StatusOK, record.PublicExport())
	}
}

// HandleClientDelete deletes a client that has no estimates or orders.
// Clients with history must be deactivated instead.
func HandleClientDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := app.FindRecordById("clients", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Client not found")
		}

		for _, col := range []string{"estimates", "orders", "invoices"} {
			n, err := app.CountRecords(col, dbx.HashExp{"client": record.Id})
			if err != nil {
				log.Printf("clients: count %s for %s failed: %v", col, record.Id, err)
				return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			if n > 0 {
				return jsonError(e, http.StatusConflict, "Client has "+col+"; deactivate it instead")
			}
		}

		if err := app.Delete(record); err != nil {
			log.Printf("clients: could not delete %s: %v", record.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleClientVersions summarises a client's estimates per version.
func HandleClientVersions(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		clientID := e.Request.PathValue("id")
		if scope := clientScope(e); scope != "" && scope != clientID {
			return jsonError(e, http.StatusNotFound, "Client not found")
		}

		records, err := app.FindRecordsByFilter("estimates", "client = {:clientId}", "created", 0, 0,
			dbx.Params{"clientId": clientID})
		if err != nil {
			log.Printf("clients: versions for %s failed: %v", clientID, err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load versions")
		}
		return e.JSON(http.StatusOK, services.SummarizeVersions(records))
	}
}

func clientCodeTaken(app core.App, code, exceptID string) bool {
	existing, err := app.FindFirstRecordByData("clients", "client_code", code)
	return err == nil && existing.Id != exceptID
}

// applyClientInput sets all editable client fields on a record.
func applyClientInput(record *core.Record, in services.ClientInput) {
	record.Set("client_code", in.ClientCode)
	record.Set("name", in.Name)
	record.Set("client_type", in.ClientType)
	record.Set("contact_person", in.ContactPerson)
	record.Set("email", in.Email)
	record.Set("phone", in.Phone)
	record.Set("address", in.Address)
	record.Set("city", in.City)
	record.Set("state", in.State)
	record.Set("pin_code", in.PinCode)
	record.Set("gstin", in.GSTIN)
	record.Set("notes", in.Notes)
	if in.IsActive != nil {
		record.Set("is_active", *in.IsActive)
	}
}
