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

// HandlePaperList lists papers, optionally filtered by ?q= on name or company
// and ?gsm=.
func HandlePaperList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()

		filters := []string{"1 = 1"}
		params := dbx.Params{}
		if text := strings.TrimSpace(q.Get("q")); text != "" {
			filters = append(filters, "(paper_name ~ {:q} || company ~ {:q})")
			params["q"] = text
		}
		if gsm := services.FormFloat(q.Get("gsm")); gsm > 0 {
			filters = append(filters, "gsm = {:gsm}")
			params["gsm"] = gsm
		}

		records, err := app.FindRecordsByFilter("papers", strings.Join(filters, " && "), "paper_name,gsm", 0, 0, params)
		if err != nil {
			log.Printf("papers: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load papers")
		}
		return e.JSON(http.StatusOK, recordsJSON(records))
	}
}

// HandlePaperSave creates a paper, or updates it when the route has an {id}.
// Derived columns are filled by the papers hook.
func HandlePaperSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var rec *core.Record
		status := http.StatusCreated
		if id := e.Request.PathValue("id"); id != "" {
			existing, err := app.FindRecordById("papers", id)
			if err != nil {
				return jsonError(e, http.StatusNotFound, "Paper not found")
			}
			rec = existing
			status = http.StatusOK
		}

		var in services.PaperInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := in.Validate(); err != nil {
			return validationError(e, "papers", err)
		}

		if rec == nil {
			col, err := app.FindCollectionByNameOrId("papers")
			if err != nil {
				log.Printf("papers: could not find papers collection: %v", err)
				return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			rec = core.NewRecord(col)
		}

		p := in.Paper()
		rec.Set("paper_name", p.Name)
		rec.Set("company", p.Company)
		rec.Set("gsm", p.GSM)
		rec.Set("price_per_sheet", p.PricePerSheet)
		rec.Set("length", p.Length)
		rec.Set("breadth", p.Breadth)
		rec.Set("freight_per_kg", p.FreightPerKg)

		if err := app.Save(rec); err != nil {
			log.Printf("papers: could not save paper: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(status, rec.PublicExport())
	}
}

// HandlePaperDelete removes a paper that no open estimate uses.
func HandlePaperDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("papers", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Paper not found")
		}

		inUse, err := app.FindRecordsByFilter("estimates",
			"state.orderAndPaper.paperId = {:id} && moved_to_orders = false && is_canceled = false",
			"", 1, 0, dbx.Params{"id": rec.Id})
		if err == nil && len(inUse) > 0 {
			return jsonError(e, http.StatusConflict, "Paper is used by an open estimate")
		}

		if err := app.Delete(rec); err != nil {
			log.Printf("papers: could not delete %s: %v", rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.NoContent(http.StatusNoContent)
	}
}
