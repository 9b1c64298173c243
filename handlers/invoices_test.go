package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
	"printshop/testhelpers"
)

// createInvoiceRecord stores a bare issued invoice for clientID.
func createInvoiceRecord(t *testing.T, app core.App, clientID string) *core.Record {
	t.Helper()
	col, err := app.FindCollectionByNameOrId("invoices")
	if err != nil {
		t.Fatalf("failed to find invoices collection: %v", err)
	}
	rec := core.NewRecord(col)
	rec.Set("client", clientID)
	rec.Set("invoice_number", "INV-TEST-"+time.Now().Format("150405.000000"))
	rec.Set("invoice_date", time.Now())
	rec.Set("lines", json.RawMessage(`[]`))
	rec.Set("totals", json.RawMessage(`{}`))
	rec.Set("status", services.InvoiceIssued)
	if err := app.Save(rec); err != nil {
		t.Fatalf("failed to save invoice: %v", err)
	}
	return rec
}

func TestHandleInvoiceCreate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Billing", "B2B")
	testhelpers.CreateTestUser(t, app, "accounts@billing.com", "b2b", client.Id)
	o1 := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	o2 := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0002", 1180)
	handler := HandleInvoiceCreate(app, testConfig())

	req := jsonRequest(t, http.MethodPost, "/api/shop/invoices", map[string]any{
		"clientId": client.Id,
		"orderIds": []string{o1.Id, o2.Id, o1.Id},
	})
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	decodeJSON(t, rec, &got)
	if got["grand_total"] != float64(2360) {
		t.Errorf("expected grand total 2360, got %v", got["grand_total"])
	}
	number, _ := got["invoice_number"].(string)
	if !strings.HasPrefix(number, "INV-") || !strings.HasSuffix(number, "-001") {
		t.Errorf("unexpected invoice number %q", number)
	}

	for _, id := range []string{o1.Id, o2.Id} {
		o, err := app.FindRecordById("orders", id)
		if err != nil {
			t.Fatalf("failed to reload order: %v", err)
		}
		if o.GetString("invoice") != got["id"] {
			t.Errorf("expected order %s linked to invoice", id)
		}
	}

	// the same orders cannot be billed twice
	req = jsonRequest(t, http.MethodPost, "/api/shop/invoices", map[string]any{
		"clientId": client.Id,
		"orderIds": []string{o1.Id},
	})
	rec = httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for invoiced order, got %d", rec.Code)
	}
}

func TestHandleInvoiceCreate_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Billing", "Direct")
	other := testhelpers.CreateTestClient(t, app, "C-002", "Other", "Direct")
	foreign := testhelpers.CreateTestOrder(t, app, other.Id, "ORD-25-26-0009", 1180)
	handler := HandleInvoiceCreate(app, testConfig())

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing client", map[string]any{"orderIds": []string{foreign.Id}}, http.StatusBadRequest},
		{"no orders", map[string]any{"clientId": client.Id}, http.StatusBadRequest},
		{"other client's order", map[string]any{"clientId": client.Id, "orderIds": []string{foreign.Id}}, http.StatusBadRequest},
		{"unknown order", map[string]any{"clientId": client.Id, "orderIds": []string{"doesnotexist123"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/api/shop/invoices", tt.body)
			rec := httptest.NewRecorder()
			if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleInvoiceShareAndSharedPDF(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Share", "Direct")
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	invoice, err := services.CreateInvoice(app, testConfig(), client.Id, []string{order.Id}, time.Now())
	if err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
	oldToken := invoice.GetString("share_token")

	req := withPathValue(httptest.NewRequest(http.MethodPost, "/", nil), "id", invoice.Id)
	rec := httptest.NewRecorder()
	if err := HandleInvoiceShare(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var share struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	decodeJSON(t, rec, &share)
	if share.Token == "" || share.Token == oldToken {
		t.Fatalf("expected a fresh token, got %q", share.Token)
	}
	if share.URL != "/api/shop/public/invoices/"+share.Token+"/pdf" {
		t.Errorf("unexpected share url %q", share.URL)
	}

	shared := HandleSharedInvoicePDF(app, testConfig())

	req = withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "token", share.Token)
	rec = httptest.NewRecorder()
	if err := shared(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Errorf("expected PDF for current token, got %d", rec.Code)
	}

	for _, token := range []string{oldToken, "not-a-uuid"} {
		req = withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "token", token)
		rec = httptest.NewRecorder()
		if err := shared(newTestRequestEvent(app, req, rec)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("token %q: expected 404, got %d", token, rec.Code)
		}
	}
}

func TestHandleInvoiceGet_HidesShareTokenFromB2B(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Token", "B2B")
	buyer := testhelpers.CreateTestUser(t, app, "buyer@token.com", "b2b", client.Id)
	invoice := createInvoiceRecord(t, app, client.Id)
	invoice.Set("share_token", "11111111-2222-3333-4444-555555555555")
	if err := app.Save(invoice); err != nil {
		t.Fatalf("failed to set token: %v", err)
	}

	req := withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "id", invoice.Id)
	rec := httptest.NewRecorder()
	if err := HandleInvoiceGet(app)(newAuthedRequestEvent(app, req, rec, buyer)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "share_token") {
		t.Error("expected share token hidden from b2b user")
	}
}

func TestHandleInvoiceStatusAndVoid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Void", "Direct")
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	invoice, err := services.CreateInvoice(app, testConfig(), client.Id, []string{order.Id}, time.Now())
	if err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}

	// void frees the order
	req := withPathValue(httptest.NewRequest(http.MethodDelete, "/", nil), "id", invoice.Id)
	rec := httptest.NewRecorder()
	if err := HandleInvoiceVoid(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	fresh, err := app.FindRecordById("orders", order.Id)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if fresh.GetString("invoice") != "" {
		t.Error("expected order detached from voided invoice")
	}

	// paid invoices stay
	invoice, err = services.CreateInvoice(app, testConfig(), client.Id, []string{order.Id}, time.Now())
	if err != nil {
		t.Fatalf("failed to re-invoice: %v", err)
	}
	req = withPathValue(jsonRequest(t, http.MethodPost, "/", map[string]string{"status": "Paid"}), "id", invoice.Id)
	rec = httptest.NewRecorder()
	if err := HandleInvoiceStatus(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = withPathValue(httptest.NewRequest(http.MethodDelete, "/", nil), "id", invoice.Id)
	rec = httptest.NewRecorder()
	if err := HandleInvoiceVoid(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for paid invoice, got %d", rec.Code)
	}
}
