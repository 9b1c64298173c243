package collections_test

import (
	"testing"

	"printshop/collections"
	"printshop/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

func TestMigrateClientDefaults_FillsMissingType(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	col, _ := app.FindCollectionByNameOrId("clients")
	legacy := core.NewRecord(col)
	legacy.Set("client_code", "OLD1")
	legacy.Set("name", "Legacy Client")
	if err := app.Save(legacy); err != nil {
		t.Fatalf("save legacy client: %v", err)
	}
	b2b := testhelpers.CreateTestClient(t, app, "B2B1", "Trade Partner", "B2B")

	if err := collections.MigrateClientDefaults(app); err != nil {
		t.Fatalf("MigrateClientDefaults() error: %v", err)
	}

	got, _ := app.FindRecordById("clients", legacy.Id)
	if got.GetString("client_type") != "Direct" {
		t.Errorf("client_type = %q, want Direct", got.GetString("client_type"))
	}
	if !got.GetBool("is_active") {
		t.Error("expected legacy client to be active")
	}

	untouched, _ := app.FindRecordById("clients", b2b.Id)
	if untouched.GetString("client_type") != "B2B" {
		t.Errorf("B2B client changed to %q", untouched.GetString("client_type"))
	}
}

func TestMigrateClientDefaults_NoClients(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.MigrateClientDefaults(app); err != nil {
		t.Fatalf("MigrateClientDefaults() error on empty db: %v", err)
	}
}

func TestMigrateEstimateVersions(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C1", "Client One", "Direct")

	col, _ := app.FindCollectionByNameOrId("estimates")
	est := core.NewRecord(col)
	est.Set("client", client.Id)
	est.Set("status", "Pending")
	if err := app.Save(est); err != nil {
		t.Fatalf("save estimate: %v", err)
	}
	versioned := testhelpers.CreateTestEstimate(t, app, client.Id, "3")

	if err := collections.MigrateEstimateVersions(app); err != nil {
		t.Fatalf("MigrateEstimateVersions() error: %v", err)
	}

	got, _ := app.FindRecordById("estimates", est.Id)
	if got.GetString("version_id") != "1" {
		t.Errorf("version_id = %q, want 1", got.GetString("version_id"))
	}
	kept, _ := app.FindRecordById("estimates", versioned.Id)
	if kept.GetString("version_id") != "3" {
		t.Errorf("existing version changed to %q", kept.GetString("version_id"))
	}

	// second run is a no-op
	if err := collections.MigrateEstimateVersions(app); err != nil {
		t.Fatalf("second run error: %v", err)
	}
}
