package collections_test

import (
	"testing"

	"printshop/collections"
	"printshop/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	counts := map[string]int{
		"loyalty_tiers":  3,
		"overheads":      5,
		"standard_rates": 19,
		"papers":         3,
		"dies":           4,
	}
	for name, want := range counts {
		records, err := app.FindAllRecords(name)
		if err != nil {
			t.Fatalf("query %s error: %v", name, err)
		}
		if len(records) != want {
			t.Errorf("%s: expected %d records, got %d", name, want, len(records))
		}
	}

	wastage, err := app.FindFirstRecordByData("overheads", "name", "WASTAGE")
	if err != nil {
		t.Fatalf("WASTAGE overhead missing: %v", err)
	}
	if wastage.GetFloat("value") != 5 {
		t.Errorf("WASTAGE = %v, want 5", wastage.GetFloat("value"))
	}

	gold, err := app.FindFirstRecordByData("loyalty_tiers", "tier_code", "GOLD")
	if err != nil {
		t.Fatalf("GOLD tier missing: %v", err)
	}
	if gold.GetInt("min_orders") != 15 || gold.GetFloat("discount_percent") != 5 {
		t.Errorf("GOLD = %d orders / %v%%", gold.GetInt("min_orders"), gold.GetFloat("discount_percent"))
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	dies, _ := app.FindAllRecords("dies")
	if len(dies) != 4 {
		t.Errorf("expected 4 dies after two seeds, got %d", len(dies))
	}
}
