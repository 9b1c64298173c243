package services

import (
	"testing"
	"time"

	"printshop/testhelpers"
)

func TestGetFiscalYear(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), "25-26"},
		{time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC), "25-26"},
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "26-27"},
		{time.Date(2099, time.December, 1, 0, 0, 0, 0, time.UTC), "99-00"},
	}
	for _, tt := range tests {
		if got := GetFiscalYear(tt.date); got != tt.want {
			t.Errorf("GetFiscalYear(%s) = %q, want %q", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestFormatDocumentNumber(t *testing.T) {
	if got := FormatDocumentNumber("ORD", "25-26", 7, 4); got != "ORD-25-26-0007" {
		t.Errorf("got %q", got)
	}
	if got := FormatDocumentNumber("INV", "25-26", 1234, 3); got != "INV-25-26-1234" {
		t.Errorf("wider sequences are not truncated, got %q", got)
	}
}

func TestNextDocumentNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Acme", "Direct")
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	got, err := NextDocumentNumber(app, "orders", "order_number", "ORD", 4, now)
	if err != nil {
		t.Fatalf("NextDocumentNumber() error = %v", err)
	}
	if got != "ORD-25-26-0001" {
		t.Errorf("first number = %q, want ORD-25-26-0001", got)
	}

	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0009", 100)
	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0010", 100)
	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-24-25-0099", 100)
	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-draft", 100)

	got, err = NextDocumentNumber(app, "orders", "order_number", "ORD", 4, now)
	if err != nil {
		t.Fatalf("NextDocumentNumber() error = %v", err)
	}
	if got != "ORD-25-26-0011" {
		t.Errorf("next number = %q, want ORD-25-26-0011", got)
	}

	// a new fiscal year restarts the sequence
	got, err = NextDocumentNumber(app, "orders", "order_number", "ORD", 4, now.AddDate(0, 3, 0))
	if err != nil {
		t.Fatalf("NextDocumentNumber() error = %v", err)
	}
	if got != "ORD-26-27-0001" {
		t.Errorf("new year number = %q, want ORD-26-27-0001", got)
	}
}
