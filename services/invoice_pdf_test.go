package services

import (
	"testing"

	"printshop/config"
)

func sampleInvoiceDocument(intra bool) *InvoiceDocument {
	lines := []InvoiceLine{
		CalcInvoiceLine(155.93, 500, 5, 18),
		CalcInvoiceLine(40, 1000, 0, 18),
	}
	lines[0].OrderNumber, lines[0].Description, lines[0].HSNCode = "ORD-2526-0001", "Card - Sharma Wedding", "4911"
	lines[1].OrderNumber, lines[1].Description, lines[1].HSNCode = "ORD-2526-0002", "Envelope - Sharma Wedding", "4817"

	buyerState := "Karnataka"
	if intra {
		buyerState = "Maharashtra"
	}
	return &InvoiceDocument{
		InvoiceNumber: "INV-2526-001",
		InvoiceDate:   "15 Jan 2026",
		Status:        InvoiceIssued,
		Seller:        InvoiceParty{Name: "Print Studio", Address: "Mumbai", State: "Maharashtra", GSTIN: "27AAPFU0939F1ZV"},
		Buyer:         InvoiceParty{Name: "Acme Weddings", Address: "Bangalore", State: buyerState, GSTIN: "29AAPFU0939F1ZV", Phone: "9876543210"},
		Lines:         lines,
		Totals:        CalcInvoiceTotals(lines, "Maharashtra", buyerState),
		Bank:          config.Bank{Beneficiary: "Print Studio", Name: "HDFC Bank", AccountNo: "123456789012", IFSC: "HDFC0001234"},
		Terms:         "Payment due within 15 days of invoice date.",
	}
}

func TestGenerateInvoicePDF_InterState(t *testing.T) {
	result, err := GenerateInvoicePDF(sampleInvoiceDocument(false))
	if err != nil {
		t.Fatalf("GenerateInvoicePDF() error = %v", err)
	}
	if len(result) < 5 || string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header")
	}
}

func TestGenerateInvoicePDF_IntraState(t *testing.T) {
	doc := sampleInvoiceDocument(true)
	if !doc.Totals.IntraState {
		t.Fatal("expected intra-state totals")
	}
	result, err := GenerateInvoicePDF(doc)
	if err != nil {
		t.Fatalf("GenerateInvoicePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateInvoicePDF() returned empty bytes")
	}
}

func TestGenerateInvoicePDF_Minimal(t *testing.T) {
	doc := &InvoiceDocument{
		InvoiceNumber: "INV-2526-002",
		Seller:        InvoiceParty{Name: "Print Studio"},
	}
	result, err := GenerateInvoicePDF(doc)
	if err != nil {
		t.Fatalf("GenerateInvoicePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateInvoicePDF() returned empty bytes")
	}
}

func TestJoinNonEmpty(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		sep   string
		want  string
	}{
		{"all non-empty", []string{"a", "b", "c"}, ", ", "a, b, c"},
		{"some empty", []string{"a", "", "c"}, " | ", "a | c"},
		{"all empty", []string{"", "", ""}, ", ", ""},
		{"single", []string{"only"}, ", ", "only"},
		{"nil", nil, ", ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := joinNonEmpty(tt.parts, tt.sep)
			if got != tt.want {
				t.Errorf("joinNonEmpty(%v, %q) = %q, want %q", tt.parts, tt.sep, got, tt.want)
			}
		})
	}
}

func TestFmtField(t *testing.T) {
	if got := fmtField("GSTIN", "27AAPFU0939F1ZV"); got != "GSTIN: 27AAPFU0939F1ZV" {
		t.Errorf("fmtField() = %q", got)
	}
	if got := fmtField("GSTIN", ""); got != "" {
		t.Errorf("fmtField() with empty value = %q, want empty", got)
	}
}
