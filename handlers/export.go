package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

// exportFilter builds the shared ?client=&from=&to= filter. Dates are
// YYYY-MM-DD and bound dateField, with to inclusive.
func exportFilter(e *core.RequestEvent, dateField string) (string, dbx.Params, error) {
	q := e.Request.URL.Query()
	filters := []string{"is_canceled = false"}
	params := dbx.Params{}

	if client := q.Get("client"); client != "" {
		filters = append(filters, "client = {:client}")
		params["client"] = client
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return "", nil, fmt.Errorf("invalid from date %q", from)
		}
		filters = append(filters, dateField+" >= {:from}")
		params["from"] = t.UTC().Format("2006-01-02 15:04:05.000Z")
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return "", nil, fmt.Errorf("invalid to date %q", to)
		}
		filters = append(filters, dateField+" < {:to}")
		params["to"] = t.AddDate(0, 0, 1).UTC().Format("2006-01-02 15:04:05.000Z")
	}
	return strings.Join(filters, " && "), params, nil
}

// clientNames maps client ids to names for the export rows.
func clientNames(app core.App) map[string]string {
	names := make(map[string]string)
	records, err := app.FindAllRecords("clients")
	if err != nil {
		log.Printf("export: load clients: %v", err)
		return names
	}
	for _, r := range records {
		names[r.Id] = r.GetString("name")
	}
	return names
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, "\"", "")
	return s
}

// HandleOrdersExportExcel downloads the filtered orders as a spreadsheet.
func HandleOrdersExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		filter, params, err := exportFilter(e, "order_date")
		if err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		orders, err := app.FindRecordsByFilter("orders", filter, "order_date", 0, 0, params)
		if err != nil {
			log.Printf("export: orders query failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load orders")
		}

		now := time.Now()
		data := services.BuildOrdersExport(orders, clientNames(app), now)
		excelBytes, err := services.GenerateExcel(data)
		if err != nil {
			log.Printf("export: failed to generate Excel: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}
		return sendFile(e, contentTypeXLSX, fmt.Sprintf("Orders_%s.xlsx", now.Format("2006-01-02")), excelBytes)
	}
}

// HandleEstimatesExportExcel downloads the filtered estimates as a spreadsheet.
func HandleEstimatesExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		filter, params, err := exportFilter(e, "created")
		if err != nil {
			return jsonError(e, http.StatusBadRequest, err.Error())
		}
		if status := e.Request.URL.Query().Get("status"); status != "" {
			filter += " && status = {:status}"
			params["status"] = status
		}
		estimates, err := app.FindRecordsByFilter("estimates", filter, "created", 0, 0, params)
		if err != nil {
			log.Printf("export: estimates query failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load estimates")
		}

		now := time.Now()
		data := services.BuildEstimatesExport(estimates, clientNames(app), now)
		excelBytes, err := services.GenerateExcel(data)
		if err != nil {
			log.Printf("export: failed to generate Excel: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}
		return sendFile(e, contentTypeXLSX, fmt.Sprintf("Estimates_%s.xlsx", now.Format("2006-01-02")), excelBytes)
	}
}
