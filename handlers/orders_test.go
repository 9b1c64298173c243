package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/dbx"

	"printshop/services"
	"printshop/testhelpers"
)

func TestHandleOrderList_UninvoicedAndProgress(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Orders", "Direct")
	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	billed := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0002", 1180)
	invoice := createInvoiceRecord(t, app, client.Id)
	billed.Set("invoice", invoice.Id)
	if err := app.Save(billed); err != nil {
		t.Fatalf("failed to link invoice: %v", err)
	}
	handler := HandleOrderList(app)

	req := httptest.NewRequest(http.MethodGet, "/api/shop/orders?uninvoiced=true", nil)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var got []map[string]any
	decodeJSON(t, rec, &got)
	if len(got) != 1 || got[0]["order_number"] != "ORD-25-26-0001" {
		t.Fatalf("expected only the uninvoiced order, got %v", got)
	}
	if got[0]["progress"] != float64(0) {
		t.Errorf("expected progress 0 for a new order, got %v", got[0]["progress"])
	}
}

func TestHandleOrderStage(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Stage", "B2B")
	testhelpers.CreateTestUser(t, app, "buyer@stage.com", "b2b", client.Id)
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	handler := HandleOrderStage(app)

	req := withPathValue(jsonRequest(t, http.MethodPost, "/", map[string]string{"stage": services.StagePrinting}), "id", order.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	testhelpers.AssertJSONContains(t, rec.Body.String(), `"stage":"Printing"`, `"progress":50`)

	n, err := app.CountRecords("notifications", dbx.HashExp{"type": services.NotifyOrderStage})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stage notification, got %d", n)
	}
}

func TestHandleOrderStage_Invalid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Stage", "Direct")
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	handler := HandleOrderStage(app)

	req := withPathValue(jsonRequest(t, http.MethodPost, "/", map[string]string{"stage": "Laminating"}), "id", order.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	order.Set("is_canceled", true)
	if err := app.Save(order); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	req = withPathValue(jsonRequest(t, http.MethodPost, "/", map[string]string{"stage": services.StageDesign}), "id", order.Id)
	rec = httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for cancelled order, got %d", rec.Code)
	}
}

func TestHandleOrderCancel_RefusedWhenInvoiced(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Cancel", "Direct")
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	invoice := createInvoiceRecord(t, app, client.Id)
	order.Set("invoice", invoice.Id)
	if err := app.Save(order); err != nil {
		t.Fatalf("failed to link invoice: %v", err)
	}
	handler := HandleOrderCancel(app)

	req := withPathValue(httptest.NewRequest(http.MethodPost, "/", nil), "id", order.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandleOrderCancel(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Cancel", "Direct")
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	handler := HandleOrderCancel(app)

	req := withPathValue(httptest.NewRequest(http.MethodPost, "/", nil), "id", order.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	fresh, err := app.FindRecordById("orders", order.Id)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if !fresh.GetBool("is_canceled") {
		t.Error("expected order cancelled")
	}
}

func TestHandleJobTicket(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Ticket <Co>", "Direct")
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0007", 1180)

	req := withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "id", order.Id)
	rec := httptest.NewRecorder()
	if err := HandleJobTicketHTML(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{"Job Ticket ORD-25-26-0007", "Ticket &lt;Co&gt;", "Provided by client", "D-101"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected job ticket to contain %q", want)
		}
	}

	req = withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "id", order.Id)
	rec = httptest.NewRecorder()
	if err := HandleJobTicketPDF(app, testConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != contentTypePDF {
		t.Errorf("expected PDF content type, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("expected PDF body")
	}
}

func TestHandleOrderGet_HiddenFromOtherClient(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	own := testhelpers.CreateTestClient(t, app, "C-001", "Own", "B2B")
	other := testhelpers.CreateTestClient(t, app, "C-002", "Other", "B2B")
	order := testhelpers.CreateTestOrder(t, app, other.Id, "ORD-25-26-0001", 1180)
	buyer := testhelpers.CreateTestUser(t, app, "buyer@own.com", "b2b", own.Id)

	req := withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "id", order.Id)
	rec := httptest.NewRecorder()
	if err := HandleOrderGet(app)(newAuthedRequestEvent(app, req, rec, buyer)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
