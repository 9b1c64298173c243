// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/collections"
)

// TestPassword is the password given to every user created by CreateTestUser.
const TestPassword = "Test-Pass-1234"

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

func save(t *testing.T, app core.App, collection string, fill func(*core.Record)) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	fill(record)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}
	return record
}

// CreateTestTier creates a loyalty tier and returns it.
func CreateTestTier(t *testing.T, app core.App, name string, minOrders int, discount float64) *core.Record {
	t.Helper()
	return save(t, app, "loyalty_tiers", func(r *core.Record) {
		r.Set("name", name)
		r.Set("tier_code", strings.ToUpper(name))
		r.Set("min_orders", minOrders)
		r.Set("discount_percent", discount)
	})
}

// CreateTestClient creates an active client of the given type ("Direct" or "B2B").
func CreateTestClient(t *testing.T, app core.App, code, name, clientType string) *core.Record {
	t.Helper()
	return save(t, app, "clients", func(r *core.Record) {
		r.Set("client_code", code)
		r.Set("name", name)
		r.Set("client_type", clientType)
		r.Set("state", "Maharashtra")
		r.Set("is_active", true)
	})
}

// CreateTestUser creates a verified user with TestPassword. clientID may be
// empty for staff roles.
func CreateTestUser(t *testing.T, app core.App, email, role, clientID string) *core.Record {
	t.Helper()
	return save(t, app, "users", func(r *core.Record) {
		r.SetEmail(email)
		r.SetPassword(TestPassword)
		r.SetVerified(true)
		r.Set("name", strings.Split(email, "@")[0])
		r.Set("role", role)
		r.Set("client", clientID)
		r.Set("is_active", true)
	})
}

// CreateTestDie creates a die with the given code and product size.
func CreateTestDie(t *testing.T, app core.App, code, jobType string, length, breadth float64, frags int) *core.Record {
	t.Helper()
	return save(t, app, "dies", func(r *core.Record) {
		r.Set("die_code", code)
		r.Set("die_name", code+" die")
		r.Set("job_type", jobType)
		r.Set("type", "Flat")
		r.Set("frags", frags)
		r.Set("product_size_l", length)
		r.Set("product_size_b", breadth)
		r.Set("die_size_l", length+0.5)
		r.Set("die_size_b", breadth+0.5)
	})
}

// CreateTestPaper creates a paper record without derived columns.
func CreateTestPaper(t *testing.T, app core.App, name string, gsm, pricePerSheet, length, breadth, freight float64) *core.Record {
	t.Helper()
	return save(t, app, "papers", func(r *core.Record) {
		r.Set("paper_name", name)
		r.Set("gsm", gsm)
		r.Set("price_per_sheet", pricePerSheet)
		r.Set("length", length)
		r.Set("breadth", breadth)
		r.Set("freight_per_kg", freight)
	})
}

// CreateTestOverhead creates an overheads entry.
func CreateTestOverhead(t *testing.T, app core.App, name string, value float64) *core.Record {
	t.Helper()
	return save(t, app, "overheads", func(r *core.Record) {
		r.Set("name", name)
		r.Set("value", value)
	})
}

// CreateTestRate creates a standard_rates entry.
func CreateTestRate(t *testing.T, app core.App, group, typ string, rate float64) *core.Record {
	t.Helper()
	return save(t, app, "standard_rates", func(r *core.Record) {
		r.Set("group", group)
		r.Set("type", typ)
		r.Set("final_rate", rate)
	})
}

// CreateTestEstimate creates a pending estimate for clientID whose stored
// state only carries the client and a quantity of 100.
func CreateTestEstimate(t *testing.T, app core.App, clientID, versionID string) *core.Record {
	t.Helper()
	return save(t, app, "estimates", func(r *core.Record) {
		r.Set("client", clientID)
		r.Set("version_id", versionID)
		r.Set("project_name", "Test Project")
		r.Set("job_type", "Card")
		r.Set("quantity", 100)
		r.Set("die_code", "D-101")
		r.Set("state", json.RawMessage(`{"orderAndPaper":{"clientId":"`+clientID+`","projectName":"Test Project","jobType":"Card","quantity":100,"dieCode":"D-101","paperProvided":true,"frags":1}}`))
		r.Set("calculations", json.RawMessage(`{"quantity":100,"totalCostPerCard":10,"totalCost":1000,"gstRate":18,"gstAmount":180,"totalWithGST":1180}`))
		r.Set("total_amount", 1180)
		r.Set("status", "Pending")
	})
}

// CreateTestOrder creates an order in the first stage with the given total.
func CreateTestOrder(t *testing.T, app core.App, clientID, orderNumber string, total float64) *core.Record {
	t.Helper()
	return save(t, app, "orders", func(r *core.Record) {
		r.Set("client", clientID)
		r.Set("order_number", orderNumber)
		r.Set("order_date", time.Now())
		r.Set("project_name", "Test Project")
		r.Set("job_type", "Card")
		r.Set("quantity", 100)
		r.Set("die_code", "D-101")
		r.Set("state", json.RawMessage(`{"orderAndPaper":{"clientId":"`+clientID+`","projectName":"Test Project","jobType":"Card","quantity":100,"dieCode":"D-101","paperProvided":true,"frags":1}}`))
		r.Set("calculations", json.RawMessage(`{"quantity":100,"totalCostPerCard":10,"totalCost":1000,"gstRate":18,"gstAmount":180,"totalWithGST":1180}`))
		r.Set("total_amount", total)
		r.Set("stage", "Not started")
	})
}

// AssertJSONContains checks that body contains all specified fragments.
func AssertJSONContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
