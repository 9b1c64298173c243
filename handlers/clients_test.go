package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"printshop/testhelpers"
)

func TestHandleClientCreate_Valid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleClientCreate(app)

	req := jsonRequest(t, http.MethodPost, "/api/shop/clients", map[string]any{
		"clientCode": " c-100 ",
		"name":       "Sharma Stationers",
		"clientType": "B2B",
		"phone":      "9876543210",
		"state":      "Maharashtra",
	})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	saved, err := app.FindFirstRecordByData("clients", "client_code", "C-100")
	if err != nil {
		t.Fatalf("expected client C-100 to be saved: %v", err)
	}
	if !saved.GetBool("is_active") {
		t.Error("expected new client to default to active")
	}
}

func TestHandleClientCreate_ValidationErrors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleClientCreate(app)

	req := jsonRequest(t, http.MethodPost, "/api/shop/clients", map[string]any{
		"clientCode": "C-101",
		"name":       "",
		"phone":      "12345",
	})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decodeJSON(t, rec, &body)
	if body.Fields["name"] == "" {
		t.Error("expected a name field error")
	}
	if body.Fields["phone"] == "" {
		t.Error("expected a phone field error")
	}
}

func TestHandleClientCreate_DuplicateCode(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestClient(t, app, "C-200", "Existing", "Direct")
	handler := HandleClientCreate(app)

	req := jsonRequest(t, http.MethodPost, "/api/shop/clients", map[string]any{
		"clientCode": "c-200",
		"name":       "Another",
	})
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	testhelpers.AssertJSONContains(t, rec.Body.String(), "client code already exists")
}

func TestHandleClientList_Filters(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestClient(t, app, "C-001", "Alpha Prints", "B2B")
	testhelpers.CreateTestClient(t, app, "C-002", "Beta Cards", "Direct")
	handler := HandleClientList(app)

	req := httptest.NewRequest(http.MethodGet, "/api/shop/clients?type=B2B", nil)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var got []map[string]any
	decodeJSON(t, rec, &got)
	if len(got) != 1 || got[0]["name"] != "Alpha Prints" {
		t.Errorf("expected only Alpha Prints, got %v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/shop/clients?q=beta", nil)
	rec = httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	decodeJSON(t, rec, &got)
	if len(got) != 1 || got[0]["client_code"] != "C-002" {
		t.Errorf("expected only C-002, got %v", got)
	}
}

func TestHandleClientGet_B2BSeesOnlyOwnClient(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	own := testhelpers.CreateTestClient(t, app, "C-001", "Own", "B2B")
	other := testhelpers.CreateTestClient(t, app, "C-002", "Other", "B2B")
	user := testhelpers.CreateTestUser(t, app, "buyer@own.com", "b2b", own.Id)
	handler := HandleClientGet(app)

	req := withPathValue(httptest.NewRequest(http.MethodGet, "/api/shop/clients/"+other.Id, nil), "id", other.Id)
	rec := httptest.NewRecorder()
	if err := handler(newAuthedRequestEvent(app, req, rec, user)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another client, got %d", rec.Code)
	}

	req = withPathValue(httptest.NewRequest(http.MethodGet, "/api/shop/clients/"+own.Id, nil), "id", own.Id)
	rec = httptest.NewRecorder()
	if err := handler(newAuthedRequestEvent(app, req, rec, user)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for own client, got %d", rec.Code)
	}
}

func TestHandleClientUpdate_TypeChangeClearsTier(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tier := testhelpers.CreateTestTier(t, app, "Gold", 0, 5)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Tiered", "B2B")
	client.Set("loyalty_tier", tier.Id)
	if err := app.Save(client); err != nil {
		t.Fatalf("failed to set tier: %v", err)
	}
	handler := HandleClientUpdate(app)

	req := withPathValue(jsonRequest(t, http.MethodPut, "/api/shop/clients/"+client.Id, map[string]any{
		"clientCode": "C-001",
		"name":       "Tiered",
		"clientType": "Direct",
	}), "id", client.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	fresh, err := app.FindRecordById("clients", client.Id)
	if err != nil {
		t.Fatalf("failed to reload client: %v", err)
	}
	if fresh.GetString("loyalty_tier") != "" {
		t.Errorf("expected tier cleared, got %q", fresh.GetString("loyalty_tier"))
	}
}

func TestHandleClientDelete(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	unused := testhelpers.CreateTestClient(t, app, "C-001", "Unused", "Direct")
	busy := testhelpers.CreateTestClient(t, app, "C-002", "Busy", "Direct")
	testhelpers.CreateTestEstimate(t, app, busy.Id, "1")
	handler := HandleClientDelete(app)

	req := withPathValue(httptest.NewRequest(http.MethodDelete, "/", nil), "id", busy.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for client with estimates, got %d", rec.Code)
	}

	req = withPathValue(httptest.NewRequest(http.MethodDelete, "/", nil), "id", unused.Id)
	rec = httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, err := app.FindRecordById("clients", unused.Id); err == nil {
		t.Error("expected client to be deleted")
	}
}

func TestHandleClientVersions(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Versions", "Direct")
	testhelpers.CreateTestEstimate(t, app, client.Id, "2")
	testhelpers.CreateTestEstimate(t, app, client.Id, "1")
	testhelpers.CreateTestEstimate(t, app, client.Id, "1")
	handler := HandleClientVersions(app)

	req := withPathValue(httptest.NewRequest(http.MethodGet, "/", nil), "id", client.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var got []struct {
		VersionID     string `json:"versionId"`
		EstimateCount int    `json:"estimateCount"`
	}
	decodeJSON(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(got))
	}
	if got[0].VersionID != "1" || got[0].EstimateCount != 2 {
		t.Errorf("expected version 1 with 2 estimates first, got %+v", got[0])
	}
}
