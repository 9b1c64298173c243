package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
	"printshop/testhelpers"
)

func fetchDashboard(t *testing.T, app *pocketbase.PocketBase, user *core.Record) services.Dashboard {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/shop/dashboard", nil)
	rec := httptest.NewRecorder()
	if err := HandleDashboard(app)(newAuthedRequestEvent(app, req, rec, user)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var d services.Dashboard
	decodeJSON(t, rec, &d)
	return d
}

func TestHandleDashboard_PerRole(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestTier(t, app, "Bronze", 1, 2)
	testhelpers.CreateTestTier(t, app, "Silver", 5, 5)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Acme", "B2B")
	testhelpers.CreateTestEstimate(t, app, client.Id, "v1")
	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	if _, err := services.SyncClientLoyalty(app); err != nil {
		t.Fatalf("sync: %v", err)
	}

	admin := testhelpers.CreateTestUser(t, app, "admin@shop.test", "admin", "")
	press := testhelpers.CreateTestUser(t, app, "press@shop.test", "production", "")
	buyer := testhelpers.CreateTestUser(t, app, "buyer@acme.test", "b2b", client.Id)

	t.Run("admin", func(t *testing.T) {
		d := fetchDashboard(t, app, admin)
		if d.Clients != 1 || d.PendingEstimates != 1 || d.UninvoicedOrders != 1 {
			t.Errorf("unexpected admin counts: %+v", d)
		}
		if d.OpenOrders != 1 || d.OrdersByStage[services.StageNotStarted] != 1 {
			t.Errorf("unexpected stage counts: %+v", d.OrdersByStage)
		}
		if d.Loyalty != nil {
			t.Error("admin should not get a loyalty block")
		}
	})

	t.Run("production", func(t *testing.T) {
		d := fetchDashboard(t, app, press)
		if d.Clients != 0 || d.PendingEstimates != 0 {
			t.Errorf("production should only see orders, got %+v", d)
		}
		if d.OpenOrders != 1 {
			t.Errorf("expected 1 open order, got %d", d.OpenOrders)
		}
	})

	t.Run("b2b", func(t *testing.T) {
		d := fetchDashboard(t, app, buyer)
		if d.PendingEstimates != 1 || d.OpenOrders != 1 {
			t.Errorf("unexpected b2b counts: %+v", d)
		}
		if d.Loyalty == nil {
			t.Fatal("expected a loyalty block for b2b")
		}
		if d.Loyalty.CurrentTier != "Bronze" || d.Loyalty.NextTier != "Silver" || d.Loyalty.OrdersToNext != 4 {
			t.Errorf("unexpected loyalty status: %+v", d.Loyalty)
		}
	})
}

func TestHandleDashboard_Unauthenticated(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/shop/dashboard", nil)
	rec := httptest.NewRecorder()
	if err := HandleDashboard(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestNotifications_ListAndRead(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	staff := testhelpers.CreateTestUser(t, app, "staff@shop.test", "staff", "")
	other := testhelpers.CreateTestUser(t, app, "other@shop.test", "staff", "")

	notify := func(n services.Notification) {
		t.Helper()
		if err := services.Notify(app, n); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	notify(services.Notification{UserID: staff.Id, Type: services.NotifyOrderCreated, Title: "direct one"})
	notify(services.Notification{UserID: staff.Id, Type: services.NotifyOrderCreated, Title: "direct two"})
	notify(services.Notification{Role: services.RoleStaff, Type: services.NotifyEstimateCreated, Title: "for staff"})
	notify(services.Notification{UserID: other.Id, Type: services.NotifyOrderCreated, Title: "not mine"})

	list := func(query string) []services.NotificationView {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/shop/notifications"+query, nil)
		rec := httptest.NewRecorder()
		if err := HandleNotificationList(app)(newAuthedRequestEvent(app, req, rec, staff)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		var items []services.NotificationView
		decodeJSON(t, rec, &items)
		return items
	}
	markRead := func(rec *httptest.ResponseRecorder, r *http.Request) int {
		t.Helper()
		if err := HandleNotificationsRead(app)(newAuthedRequestEvent(app, r, rec, staff)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		var out map[string]int
		decodeJSON(t, rec, &out)
		return out["marked"]
	}

	items := list("")
	if len(items) != 3 {
		t.Fatalf("expected 3 visible notifications, got %d", len(items))
	}
	for _, n := range items {
		if n.Title == "not mine" {
			t.Error("another user's notification leaked")
		}
		if n.Age == "" {
			t.Error("expected a relative age")
		}
	}

	// by id in the body, ignoring ids the user cannot see
	notMine, err := app.FindFirstRecordByData("notifications", "title", "not mine")
	if err != nil {
		t.Fatalf("find notification: %v", err)
	}
	body := jsonRequest(t, http.MethodPost, "/api/shop/notifications/read", map[string]any{
		"ids": []string{items[0].ID, notMine.Id},
	})
	if n := markRead(httptest.NewRecorder(), body); n != 1 {
		t.Errorf("expected 1 marked by ids, got %d", n)
	}

	// by path id
	r := withPathValue(httptest.NewRequest(http.MethodPost, "/", nil), "id", items[1].ID)
	if n := markRead(httptest.NewRecorder(), r); n != 1 {
		t.Errorf("expected 1 marked by path id, got %d", n)
	}

	if unread := list("?unread=true"); len(unread) != 1 {
		t.Errorf("expected 1 unread left, got %d", len(unread))
	}

	// everything else
	all := httptest.NewRequest(http.MethodPost, "/api/shop/notifications/read", nil)
	if n := markRead(httptest.NewRecorder(), all); n != 1 {
		t.Errorf("expected the last one marked, got %d", n)
	}
	if unread := list("?unread=true"); len(unread) != 0 {
		t.Errorf("expected nothing unread, got %d", len(unread))
	}

	if fresh, _ := app.FindRecordById("notifications", notMine.Id); fresh.GetBool("read") {
		t.Error("another user's notification was marked read")
	}
}
