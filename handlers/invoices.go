package handlers

import (
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/config"
	"printshop/services"
)

// invoiceJSON hides the share token from b2b users; only staff hand out links.
func invoiceJSON(e *core.RequestEvent, rec *core.Record) map[string]any {
	out := rec.PublicExport()
	if clientScope(e) != "" {
		delete(out, "share_token")
	}
	return out
}

// HandleInvoiceList lists invoices filtered by ?client= and ?status=.
func HandleInvoiceList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
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
		if status := q.Get("status"); status != "" {
			filters = append(filters, "status = {:status}")
			params["status"] = status
		}

		records, err := app.FindRecordsByFilter("invoices", strings.Join(filters, " && "), "-invoice_date", 0, 0, params)
		if err != nil {
			log.Printf("invoices: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load invoices")
		}
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			out = append(out, invoiceJSON(e, r))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleInvoiceGet returns one invoice.
func HandleInvoiceGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "invoices")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		return e.JSON(http.StatusOK, invoiceJSON(e, rec))
	}
}

type invoiceRequest struct {
	ClientID string   `json:"clientId"`
	OrderIDs []string `json:"orderIds"`
}

// HandleInvoiceCreate bills the selected orders of one client.
func HandleInvoiceCreate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req invoiceRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if req.ClientID == "" {
			return jsonError(e, http.StatusBadRequest, "Client is required")
		}

		invoice, err := services.CreateInvoice(app, cfg, req.ClientID, slices.Compact(slices.Sorted(slices.Values(req.OrderIDs))), time.Now())
		if err != nil {
			return serviceError(e, "invoice_create", err)
		}

		_, err = services.NotifyClientUsers(app, req.ClientID, services.Notification{
			Type:     services.NotifyInvoiceIssued,
			Title:    "Invoice " + invoice.GetString("invoice_number"),
			Message:  "A new invoice of " + services.FormatINR(invoice.GetFloat("grand_total")) + " is available.",
			EntityID: invoice.Id,
		})
		if err != nil {
			log.Printf("invoice_create: notify client %s: %v", req.ClientID, err)
		}
		return e.JSON(http.StatusCreated, invoiceJSON(e, invoice))
	}
}

// HandleInvoicePDF downloads an invoice as PDF.
func HandleInvoicePDF(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "invoices")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		return writeInvoicePDF(app, cfg, e, rec)
	}
}

// HandleSharedInvoicePDF serves an invoice to anyone holding its share token.
func HandleSharedInvoicePDF(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		token := e.Request.PathValue("token")
		if _, err := uuid.Parse(token); err != nil {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		rec, err := app.FindFirstRecordByData("invoices", "share_token", token)
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		return writeInvoicePDF(app, cfg, e, rec)
	}
}

func writeInvoicePDF(app core.App, cfg *config.Config, e *core.RequestEvent, rec *core.Record) error {
	doc, err := services.BuildInvoiceDocument(app, cfg, rec)
	if err != nil {
		log.Printf("invoice_pdf: failed to build %s: %v", rec.Id, err)
		return jsonError(e, http.StatusInternalServerError, "Failed to build invoice")
	}
	pdfBytes, err := services.GenerateInvoicePDF(doc)
	if err != nil {
		log.Printf("invoice_pdf: failed to generate PDF: %v", err)
		return jsonError(e, http.StatusInternalServerError, "Failed to generate PDF")
	}
	return sendFile(e, contentTypePDF, fmt.Sprintf("%s.pdf", doc.InvoiceNumber), pdfBytes)
}

// HandleInvoiceShare issues a fresh share token, revoking the previous link.
func HandleInvoiceShare(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "invoices")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		token := uuid.NewString()
		rec.Set("share_token", token)
		if err := app.Save(rec); err != nil {
			return serviceError(e, "invoice_share", err)
		}
		return e.JSON(http.StatusOK, map[string]string{
			"token": token,
			"url":   "/api/shop/public/invoices/" + token + "/pdf",
		})
	}
}

// HandleInvoiceStatus marks an invoice Issued or Paid.
func HandleInvoiceStatus(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "invoices")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		var req statusRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		if req.Status != services.InvoiceIssued && req.Status != services.InvoicePaid {
			return jsonError(e, http.StatusBadRequest, "Status must be Issued or Paid")
		}
		rec.Set("status", req.Status)
		if err := app.Save(rec); err != nil {
			return serviceError(e, "invoice_status", err)
		}
		return e.JSON(http.StatusOK, invoiceJSON(e, rec))
	}
}

// HandleInvoiceVoid deletes an unpaid invoice and frees its orders.
func HandleInvoiceVoid(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "invoices")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Invoice not found")
		}
		if err := services.VoidInvoice(app, rec.Id); err != nil {
			return serviceError(e, "invoice_void", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}
