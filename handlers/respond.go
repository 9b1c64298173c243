package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

// jsonError writes {"error": message} with the given status.
func jsonError(e *core.RequestEvent, statusCode int, message string) error {
	return e.JSON(statusCode, map[string]string{"error": message})
}

// validationFields flattens ozzo validation errors into field → message.
// It reports false when err is not a validation error.
func validationFields(err error) (map[string]string, bool) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs))
	for name, fe := range verrs {
		if nested, ok := validationFields(fe); ok {
			for k, v := range nested {
				fields[name+"."+k] = v
			}
			continue
		}
		fields[name] = fe.Error()
	}
	return fields, true
}

// validationError writes a 400 with the offending fields, or falls back to
// serviceError when err carries no field detail.
func validationError(e *core.RequestEvent, tag string, err error) error {
	fields, ok := validationFields(err)
	if !ok {
		return serviceError(e, tag, err)
	}
	return e.JSON(http.StatusBadRequest, map[string]any{
		"error":  "Please fix the highlighted fields",
		"fields": fields,
	})
}

// serviceError maps errors coming back from services to a status code.
// Unexpected errors are logged and hidden behind a generic message.
func serviceError(e *core.RequestEvent, tag string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return jsonError(e, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUnknownAction),
		errors.Is(err, services.ErrInvalidStage),
		errors.Is(err, services.ErrNoOrders),
		errors.Is(err, services.ErrClientMismatch):
		return jsonError(e, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrEstimateLocked),
		errors.Is(err, services.ErrOrderCanceled),
		errors.Is(err, services.ErrAlreadyInvoiced),
		errors.Is(err, services.ErrInvoicePaid):
		return jsonError(e, http.StatusConflict, err.Error())
	}
	if _, ok := validationFields(err); ok {
		return validationError(e, tag, err)
	}
	log.Printf("%s: %v", tag, err)
	return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// sendFile writes a download with the given content type.
func sendFile(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// recordsJSON exports records with their public fields.
func recordsJSON(records []*core.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, r.PublicExport())
	}
	return out
}
