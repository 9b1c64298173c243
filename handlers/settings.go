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

// HandleOverheadList returns all overhead entries plus the markup names the
// estimate wizard can offer.
func HandleOverheadList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("overheads", "1 = 1", "name", 0, 0)
		if err != nil {
			log.Printf("overheads: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load overheads")
		}
		overheads, err := services.LoadOverheads(app)
		if err != nil {
			log.Printf("overheads: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load overheads")
		}
		return e.JSON(http.StatusOK, map[string]any{
			"items":       recordsJSON(records),
			"markupTypes": overheads.MarkupNames(),
		})
	}
}

// HandleOverheadSave creates an overhead, or updates the one named by {id}.
// Names are stored upper-case since the pipeline looks them up by name.
func HandleOverheadSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.OverheadInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Name = strings.ToUpper(strings.TrimSpace(in.Name))
		if err := in.Validate(); err != nil {
			return validationError(e, "overheads", err)
		}

		rec, status, err := findOrNewRecord(app, "overheads", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Overhead not found")
		}
		if other, err := app.FindFirstRecordByData("overheads", "name", in.Name); err == nil && other.Id != rec.Id {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"name": "an overhead with this name already exists"},
			})
		}

		rec.Set("name", in.Name)
		rec.Set("value", in.Value)
		rec.Set("description", strings.TrimSpace(in.Description))
		if err := app.Save(rec); err != nil {
			log.Printf("overheads: could not save %q: %v", in.Name, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(status, rec.PublicExport())
	}
}

// HandleRateList returns standard rates, optionally for one ?group=.
func HandleRateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		filter, params := "1 = 1", dbx.Params{}
		if group := e.Request.URL.Query().Get("group"); group != "" {
			filter = "group = {:group}"
			params["group"] = group
		}
		records, err := app.FindRecordsByFilter("standard_rates", filter, "group,type", 0, 0, params)
		if err != nil {
			log.Printf("rates: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load rates")
		}
		return e.JSON(http.StatusOK, recordsJSON(records))
	}
}

// HandleRateSave creates a standard rate, or updates the one named by {id}.
func HandleRateSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.RateInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Group = strings.TrimSpace(in.Group)
		in.Type = strings.TrimSpace(in.Type)
		if err := in.Validate(); err != nil {
			return validationError(e, "rates", err)
		}

		rec, status, err := findOrNewRecord(app, "standard_rates", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Rate not found")
		}
		dupes, err := app.FindRecordsByFilter("standard_rates", "group = {:group} && type = {:type} && id != {:id}",
			"", 1, 0, dbx.Params{"group": in.Group, "type": in.Type, "id": rec.Id})
		if err == nil && len(dupes) > 0 {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"type": "this group already has a rate of that type"},
			})
		}

		rec.Set("group", in.Group)
		rec.Set("type", in.Type)
		rec.Set("final_rate", in.FinalRate)
		rec.Set("description", strings.TrimSpace(in.Description))
		if err := app.Save(rec); err != nil {
			log.Printf("rates: could not save %s/%s: %v", in.Group, in.Type, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(status, rec.PublicExport())
	}
}

// HandleSettingDelete deletes a record from an admin-managed collection.
func HandleSettingDelete(app *pocketbase.PocketBase, collection string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById(collection, e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Not found")
		}
		if err := app.Delete(rec); err != nil {
			log.Printf("settings: could not delete %s/%s: %v", collection, rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// findOrNewRecord loads id from collection, or returns a new record when id is
// empty. The status is what a successful save should answer with.
func findOrNewRecord(app core.App, collection, id string) (*core.Record, int, error) {
	if id != "" {
		rec, err := app.FindRecordById(collection, id)
		return rec, http.StatusOK, err
	}
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, 0, err
	}
	return core.NewRecord(col), http.StatusCreated, nil
}
