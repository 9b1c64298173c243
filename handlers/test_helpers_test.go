package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/config"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newAuthedRequestEvent is newTestRequestEvent for a signed-in user, with the
// ShopUser already in the context as RequireRole would leave it.
func newAuthedRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder, user *core.Record) *core.RequestEvent {
	ctx := context.WithValue(req.Context(), ShopUserKey, shopUserFromRecord(user))
	e := newTestRequestEvent(app, req.WithContext(ctx), rec)
	e.Auth = user
	return e
}

// jsonRequest builds a request with body marshalled as JSON.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withPathValue sets a route parameter the way the router would.
func withPathValue(req *http.Request, name, value string) *http.Request {
	req.SetPathValue(name, value)
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func testConfig() *config.Config {
	return config.Default()
}
