package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/spf13/cast"

	"printshop/services"
)

// dieJSON adds the image URL to a die record export.
func dieJSON(rec *core.Record) map[string]any {
	out := rec.PublicExport()
	if img := rec.GetString("image"); img != "" {
		out["imageUrl"] = "/api/files/" + rec.BaseFilesPath() + "/" + img
	}
	return out
}

// HandleDieSearch filters all dies in memory.
// Query: ?q=&jobType=&type=&length=&breadth=&tolerance=&limit=
func HandleDieSearch(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()

		records, err := app.FindAllRecords("dies")
		if err != nil {
			log.Printf("dies: load failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load dies")
		}
		byID := make(map[string]*core.Record, len(records))
		dies := make([]services.Die, 0, len(records))
		for _, r := range records {
			byID[r.Id] = r
			dies = append(dies, services.DieFromRecord(r))
		}

		matches := services.SearchDies(dies, services.DieQuery{
			Text:      q.Get("q"),
			JobType:   q.Get("jobType"),
			Type:      q.Get("type"),
			Length:    cast.ToFloat64(q.Get("length")),
			Breadth:   cast.ToFloat64(q.Get("breadth")),
			Tolerance: cast.ToFloat64(q.Get("tolerance")),
			Limit:     cast.ToInt(q.Get("limit")),
		})

		out := make([]map[string]any, 0, len(matches))
		for _, d := range matches {
			out = append(out, dieJSON(byID[d.ID]))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleDieGet returns one die.
func HandleDieGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("dies", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Die not found")
		}
		return e.JSON(http.StatusOK, dieJSON(rec))
	}
}

// HandleDieCreate saves a new die from a JSON DieInput.
func HandleDieCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.DieInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Normalize()
		if err := in.Validate(); err != nil {
			return validationError(e, "dies", err)
		}
		if _, err := app.FindFirstRecordByData("dies", "die_code", in.DieCode); err == nil {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"dieCode": "die code already exists"},
			})
		}

		col, err := app.FindCollectionByNameOrId("dies")
		if err != nil {
			log.Printf("dies: could not find dies collection: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		rec := core.NewRecord(col)
		services.ApplyDieInput(rec, in)
		if err := app.Save(rec); err != nil {
			log.Printf("dies: could not save die: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusCreated, dieJSON(rec))
	}
}

// HandleDieUpdate replaces the editable fields of a die.
func HandleDieUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("dies", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Die not found")
		}

		var in services.DieInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Normalize()
		if err := in.Validate(); err != nil {
			return validationError(e, "dies", err)
		}
		if other, err := app.FindFirstRecordByData("dies", "die_code", in.DieCode); err == nil && other.Id != rec.Id {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"dieCode": "die code already exists"},
			})
		}

		services.ApplyDieInput(rec, in)
		if err := app.Save(rec); err != nil {
			log.Printf("dies: could not update die %s: %v", rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, dieJSON(rec))
	}
}

// HandleDieDelete removes a die. Estimates keep their die code as text.
func HandleDieDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("dies", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Die not found")
		}
		if err := app.Delete(rec); err != nil {
			log.Printf("dies: could not delete %s: %v", rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleDieImageUpload stores the multipart "image" file on the die,
// replacing any previous one.
func HandleDieImageUpload(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("dies", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Die not found")
		}

		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return jsonError(e, http.StatusBadRequest, "File too large or invalid form data")
		}
		_, header, err := e.Request.FormFile("image")
		if err != nil {
			return jsonError(e, http.StatusBadRequest, "Please select an image to upload")
		}

		file, err := filesystem.NewFileFromMultipart(header)
		if err != nil {
			log.Printf("dies: read upload for %s: %v", rec.Id, err)
			return jsonError(e, http.StatusBadRequest, "Could not read the uploaded image")
		}
		rec.Set("image", file)

		if err := app.Save(rec); err != nil {
			// mime type and size rules live on the field
			return validationError(e, "dies", err)
		}
		return e.JSON(http.StatusOK, dieJSON(rec))
	}
}

// HandleDieImportValidate parses an uploaded CSV/XLSX and reports row errors.
// When every row is valid the parsed rows are returned for the commit call.
func HandleDieImportValidate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return jsonError(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return jsonError(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ValidateDieFile(file, header.Filename)
		if err != nil {
			log.Printf("die_import: %v", err)
			return jsonError(e, http.StatusBadRequest, err.Error())
		}

		resp := map[string]any{"result": result}
		if result.ErrorRows == 0 {
			resp["rows"] = result.ParsedRows
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// HandleDieImportCommit re-validates the posted rows and upserts them by die code.
func HandleDieImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var rows []services.DieInput
		if err := e.BindBody(&rows); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid import data")
		}
		if len(rows) == 0 {
			return jsonError(e, http.StatusBadRequest, "File data missing. Please re-upload and try again.")
		}

		for i := range rows {
			rows[i].Normalize()
			if err := rows[i].Validate(); err != nil {
				return jsonError(e, http.StatusBadRequest, fmt.Sprintf("row %d: %v", i+2, err))
			}
		}

		result, err := services.ImportDies(app, rows)
		if err != nil {
			log.Printf("die_import_commit: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, result)
	}
}

// HandleDieImportTemplate downloads the empty die sheet.
func HandleDieImportTemplate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateDieTemplate()
		if err != nil {
			log.Printf("die_template: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to generate template")
		}
		return sendFile(e, contentTypeXLSX, "Die_Import_Template.xlsx", xlsxBytes)
	}
}

// HandleDieImportErrorReport turns posted validation errors into a spreadsheet.
func HandleDieImportErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errs []services.ValidationError
		if err := e.BindBody(&errs); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(errs)
		if err != nil {
			log.Printf("error_report: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		filename := fmt.Sprintf("Die_Import_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		return sendFile(e, contentTypeXLSX, filename, xlsxBytes)
	}
}
