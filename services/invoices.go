package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"printshop/config"
)

const (
	InvoiceDraft  = "Draft"
	InvoiceIssued = "Issued"
	InvoicePaid   = "Paid"
)

var (
	ErrNoOrders        = errors.New("no orders selected")
	ErrAlreadyInvoiced = errors.New("order already invoiced")
	ErrInvoicePaid     = errors.New("paid invoices cannot be voided")
)

// CreateInvoice bills the given orders of one client on a new invoice. All
// orders must belong to clientID, be live and not yet invoiced.
func CreateInvoice(app core.App, cfg *config.Config, clientID string, orderIDs []string, now time.Time) (*core.Record, error) {
	if len(orderIDs) == 0 {
		return nil, ErrNoOrders
	}

	var invoice *core.Record
	err := app.RunInTransaction(func(txApp core.App) error {
		client, err := txApp.FindRecordById("clients", clientID)
		if err != nil {
			return fmt.Errorf("client %s: %w", clientID, err)
		}

		orders, err := txApp.FindRecordsByIds("orders", orderIDs)
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		if len(orders) != len(orderIDs) {
			return fmt.Errorf("load orders: %d of %d found: %w", len(orders), len(orderIDs), sql.ErrNoRows)
		}

		lines := make([]InvoiceLine, 0, len(orders))
		for _, o := range orders {
			if o.GetString("client") != clientID {
				return fmt.Errorf("order %s: %w", o.Id, ErrClientMismatch)
			}
			if o.GetBool("is_canceled") {
				return fmt.Errorf("order %s: %w", o.Id, ErrOrderCanceled)
			}
			if o.GetString("invoice") != "" {
				return fmt.Errorf("order %s: %w", o.Id, ErrAlreadyInvoiced)
			}
			line, err := invoiceLineForOrder(o, cfg)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		totals := CalcInvoiceTotals(lines, cfg.Company.State, client.GetString("state"))

		number, err := NextDocumentNumber(txApp, "invoices", "invoice_number", cfg.Numbers.InvoicePrefix, 3, now)
		if err != nil {
			return err
		}

		col, err := txApp.FindCollectionByNameOrId("invoices")
		if err != nil {
			return fmt.Errorf("find invoices collection: %w", err)
		}
		invoice = core.NewRecord(col)
		invoice.Set("client", clientID)
		invoice.Set("orders", orderIDs)
		invoice.Set("invoice_number", number)
		invoice.Set("invoice_date", now)
		invoice.Set("lines", lines)
		invoice.Set("totals", totals)
		invoice.Set("grand_total", totals.GrandTotal)
		invoice.Set("status", InvoiceIssued)
		invoice.Set("share_token", uuid.NewString())
		if err := txApp.Save(invoice); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		for _, o := range orders {
			o.Set("invoice", invoice.Id)
			if err := txApp.Save(o); err != nil {
				return fmt.Errorf("link order %s to invoice: %w", o.Id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func invoiceLineForOrder(o *core.Record, cfg *config.Config) (InvoiceLine, error) {
	b, err := BreakdownFromRecord(o)
	if err != nil {
		return InvoiceLine{}, err
	}
	state, err := StateFromRecord(o)
	if err != nil {
		return InvoiceLine{}, err
	}

	line := LineFromBreakdown(b)
	line.OrderID = o.Id
	line.OrderNumber = o.GetString("order_number")
	line.Description = fmt.Sprintf("%s - %s", state.OrderAndPaper.JobType, state.OrderAndPaper.ProjectName)
	line.HSNCode = state.OrderAndPaper.HSNCode
	if line.HSNCode == "" {
		line.HSNCode = cfg.Tax.HSNCode
	}
	return line, nil
}

// VoidInvoice detaches the orders of a draft or issued invoice and deletes it.
// Paid invoices are kept.
func VoidInvoice(app core.App, invoiceID string) error {
	return app.RunInTransaction(func(txApp core.App) error {
		invoice, err := txApp.FindRecordById("invoices", invoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", invoiceID, err)
		}
		if invoice.GetString("status") == InvoicePaid {
			return fmt.Errorf("invoice %s: %w", invoice.GetString("invoice_number"), ErrInvoicePaid)
		}
		orders, err := txApp.FindRecordsByIds("orders", invoice.GetStringSlice("orders"))
		if err != nil {
			return fmt.Errorf("load orders of invoice %s: %w", invoiceID, err)
		}
		for _, o := range orders {
			o.Set("invoice", "")
			if err := txApp.Save(o); err != nil {
				return fmt.Errorf("unlink order %s: %w", o.Id, err)
			}
		}
		return txApp.Delete(invoice)
	})
}
