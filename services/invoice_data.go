package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"printshop/config"
)

// InvoiceParty is the seller or buyer block of an invoice.
type InvoiceParty struct {
	Name    string
	Address string
	State   string
	GSTIN   string
	Phone   string
	Email   string
}

// InvoiceDocument holds everything the invoice PDF prints.
type InvoiceDocument struct {
	InvoiceNumber string
	InvoiceDate   string
	Status        string

	Seller InvoiceParty
	Buyer  InvoiceParty

	Lines  []InvoiceLine
	Totals InvoiceTotals

	Bank  config.Bank
	Terms string
}

// BuildInvoiceDocument loads an invoices record and its client into the shape
// the PDF renderer expects.
func BuildInvoiceDocument(app core.App, cfg *config.Config, invoice *core.Record) (*InvoiceDocument, error) {
	var lines []InvoiceLine
	if err := invoice.UnmarshalJSONField("lines", &lines); err != nil {
		return nil, fmt.Errorf("decode lines of invoice %s: %w", invoice.Id, err)
	}
	var totals InvoiceTotals
	if err := invoice.UnmarshalJSONField("totals", &totals); err != nil {
		return nil, fmt.Errorf("decode totals of invoice %s: %w", invoice.Id, err)
	}

	client, err := app.FindRecordById("clients", invoice.GetString("client"))
	if err != nil {
		return nil, fmt.Errorf("client of invoice %s: %w", invoice.Id, err)
	}

	return &InvoiceDocument{
		InvoiceNumber: invoice.GetString("invoice_number"),
		InvoiceDate:   invoice.GetDateTime("invoice_date").Time().Format("02 Jan 2006"),
		Status:        invoice.GetString("status"),
		Seller: InvoiceParty{
			Name:    cfg.Company.Name,
			Address: cfg.Company.Address,
			State:   cfg.Company.State,
			GSTIN:   cfg.Company.GSTIN,
			Phone:   cfg.Company.Phone,
			Email:   cfg.Company.Email,
		},
		Buyer: InvoiceParty{
			Name: client.GetString("name"),
			Address: joinNonEmpty([]string{
				client.GetString("address"),
				client.GetString("city"),
				strings.TrimSpace(client.GetString("state") + " " + client.GetString("pin_code")),
			}, ", "),
			State: client.GetString("state"),
			GSTIN: client.GetString("gstin"),
			Phone: client.GetString("phone"),
			Email: client.GetString("email"),
		},
		Lines:  lines,
		Totals: totals,
		Bank:   cfg.Bank,
		Terms:  cfg.Invoices.Terms,
	}, nil
}
