package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/config"
	"printshop/services"
)

func orderJSON(rec *core.Record) map[string]any {
	out := rec.PublicExport()
	out["progress"] = services.StageProgress(rec.GetString("stage"))
	return out
}

// HandleOrderList lists orders filtered by ?client=, ?stage=, ?q= and
// ?uninvoiced=true. Cancelled orders are hidden unless ?all=true.
func HandleOrderList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()

		filters := []string{"1 = 1"}
		params := dbx.Params{}
		clientID := q.Get("client")
		if scope := clientScope(e); scope != "" {
			clientID = scope
		}
		if clientID != "" {
			filters = append(filters, "client = {:client}")
			params["client"] = clientID
		}
		if stage := q.Get("stage"); stage != "" {
			filters = append(filters, "stage = {:stage}")
			params["stage"] = stage
		}
		if text := strings.TrimSpace(q.Get("q")); text != "" {
			filters = append(filters, "(order_number ~ {:q} || project_name ~ {:q})")
			params["q"] = text
		}
		if q.Get("uninvoiced") == "true" {
			filters = append(filters, "invoice = ''")
		}
		if q.Get("all") != "true" {
			filters = append(filters, "is_canceled = false")
		}

		records, err := app.FindRecordsByFilter("orders", strings.Join(filters, " && "), "-order_date", 0, 0, params)
		if err != nil {
			log.Printf("orders: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load orders")
		}
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			out = append(out, orderJSON(r))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleOrderGet returns one order.
func HandleOrderGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "orders")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Order not found")
		}
		return e.JSON(http.StatusOK, orderJSON(rec))
	}
}

type stageRequest struct {
	Stage string `json:"stage"`
}

// HandleOrderStage moves an order to another production stage and tells the
// client's users.
func HandleOrderStage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "orders")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Order not found")
		}

		var req stageRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := services.ValidateStageChange(rec, req.Stage); err != nil {
			return serviceError(e, "order_stage", err)
		}
		if rec.GetString("stage") == req.Stage {
			return e.JSON(http.StatusOK, orderJSON(rec))
		}

		rec.Set("stage", req.Stage)
		if err := app.Save(rec); err != nil {
			return serviceError(e, "order_stage", err)
		}

		_, err := services.NotifyClientUsers(app, rec.GetString("client"), services.Notification{
			Type:     services.NotifyOrderStage,
			Title:    fmt.Sprintf("Order %s: %s", rec.GetString("order_number"), req.Stage),
			Message:  fmt.Sprintf("%s is now in %s.", rec.GetString("project_name"), req.Stage),
			EntityID: rec.Id,
		})
		if err != nil {
			log.Printf("order_stage: notify client of %s: %v", rec.Id, err)
		}
		return e.JSON(http.StatusOK, orderJSON(rec))
	}
}

// HandleOrderCancel cancels an order that is not yet invoiced and recounts
// the client's loyalty.
func HandleOrderCancel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "orders")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Order not found")
		}
		if rec.GetString("invoice") != "" {
			return serviceError(e, "order_cancel", services.ErrAlreadyInvoiced)
		}
		if rec.GetBool("is_canceled") {
			return e.JSON(http.StatusOK, orderJSON(rec))
		}

		rec.Set("is_canceled", true)
		if err := app.Save(rec); err != nil {
			return serviceError(e, "order_cancel", err)
		}
		if _, err := services.SyncClientLoyalty(app, rec.GetString("client")); err != nil {
			log.Printf("order_cancel: loyalty sync for %s: %v", rec.GetString("client"), err)
		}
		return e.JSON(http.StatusOK, orderJSON(rec))
	}
}

// HandleJobTicketPDF downloads the production job ticket of an order.
func HandleJobTicketPDF(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "orders")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Order not found")
		}

		jt, err := services.BuildJobTicket(app, rec)
		if err != nil {
			log.Printf("job_ticket: failed to build %s: %v", rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Failed to build job ticket")
		}
		pdfBytes, err := services.GenerateJobTicketPDF(jt, cfg.Company.Name)
		if err != nil {
			log.Printf("job_ticket: failed to generate PDF: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to generate PDF")
		}
		return sendFile(e, contentTypePDF, fmt.Sprintf("JobTicket_%s.pdf", jt.OrderNumber), pdfBytes)
	}
}

// HandleJobTicketHTML renders the printable job ticket preview.
func HandleJobTicketHTML(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "orders")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Order not found")
		}

		jt, err := services.BuildJobTicket(app, rec)
		if err != nil {
			log.Printf("job_ticket: failed to build %s: %v", rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Failed to build job ticket")
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return services.JobTicketHTML(jt).Render(e.Request.Context(), e.Response)
	}
}
