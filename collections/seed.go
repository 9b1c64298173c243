package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

type tierDef struct {
	name        string
	code        string
	minOrders   int
	discount    float64
	color       string
	description string
}

type overheadDef struct {
	name        string
	value       float64
	description string
}

type rateDef struct {
	group string
	typ   string
	rate  float64
}

type paperDef struct {
	name          string
	company       string
	gsm           float64
	pricePerSheet float64
	length        float64
	breadth       float64
	freightPerKg  float64
}

type dieDef struct {
	code     string
	name     string
	jobType  string
	dieType  string
	frags    int
	productL float64
	productB float64
	dieL     float64
	dieB     float64
	price    float64
}

var seedTiers = []tierDef{
	{"Silver", "SILVER", 5, 2, "#C0C0C0", "Five or more orders"},
	{"Gold", "GOLD", 15, 5, "#D4AF37", "Fifteen or more orders"},
	{"Platinum", "PLATINUM", 30, 8, "#8E9AAF", "Thirty or more orders"},
}

var seedOverheads = []overheadDef{
	{"WASTAGE", 5, "Sheet wastage on the base cost"},
	{"OVERHEADS", 35, "Shop overheads on base plus wastage"},
	{"MARKUP STANDARD", 10, "Standard margin"},
	{"MARKUP B2B", 5, "Trade margin for B2B clients"},
	{"MARKUP PREMIUM", 20, "Rush and premium jobs"},
}

var seedRates = []rateDef{
	{"LP PLATE", "DEFAULT", 1.2},
	{"LP PLATE", "POLYMER", 1.5},
	{"LP MR", "DEFAULT", 400},
	{"LP IMPRESSION", "DEFAULT", 0.8},
	{"FS BLOCK", "DEFAULT", 2},
	{"FS BLOCK", "MAGNESIUM", 2.5},
	{"FS MR", "DEFAULT", 300},
	{"FOIL", "DEFAULT", 1.5},
	{"FOIL", "HOLOGRAPHIC", 3},
	{"FS IMPRESSION", "DEFAULT", 1},
	{"EMB PLATE", "DEFAULT", 1.8},
	{"EMB MR", "DEFAULT", 350},
	{"EMB IMPRESSION", "DEFAULT", 1},
	{"DIGITAL", "DEFAULT", 12},
	{"DC MR", "DEFAULT", 250},
	{"DC IMPRESSION", "DEFAULT", 0.5},
	{"PASTING", "DEFAULT", 1},
	{"PASTING", "SIDE", 1.5},
	{"PASTING", "BOX", 3},
}

var seedPapers = []paperDef{
	{"Art Card 300", "JK Paper", 300, 18, 58.4, 91.4, 12},
	{"Textured Ivory 250", "Fedrigoni", 250, 42, 70, 100, 15},
	{"Kraft 200", "BILT", 200, 9, 58.4, 91.4, 10},
}

var seedDies = []dieDef{
	{"D-101", "Square Card", "Card", "Flat", 4, 15, 15, 15.5, 15.5, 1200},
	{"D-102", "A5 Invite", "Card", "Flat", 2, 21, 14.8, 21.5, 15.3, 1500},
	{"D-201", "Pocket Envelope", "Envelope", "Fold", 1, 16, 16, 34, 28, 2200},
	{"D-301", "Tag", "Tag", "Flat", 12, 5, 9, 5.5, 9.5, 900},
}

// Seed populates the rate tables, overheads, loyalty tiers, papers and dies.
// Derived paper columns are filled by the papers record hooks.
// It is safe to call on every startup because it returns early if any
// overheads already exist.
func Seed(app core.App) error {
	overheadsCol, err := app.FindCollectionByNameOrId("overheads")
	if err != nil {
		return fmt.Errorf("seed: could not find overheads collection: %w", err)
	}
	n, err := app.CountRecords(overheadsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query overheads: %w", err)
	}
	if n > 0 {
		return nil // already seeded
	}

	log.Println("seed: overheads collection is empty, inserting seed data")

	return app.RunInTransaction(func(txApp core.App) error {
		if err := seedCollection(txApp, "loyalty_tiers", seedTiers, func(r *core.Record, d tierDef) {
			r.Set("name", d.name)
			r.Set("tier_code", d.code)
			r.Set("min_orders", d.minOrders)
			r.Set("discount_percent", d.discount)
			r.Set("color", d.color)
			r.Set("description", d.description)
		}); err != nil {
			return err
		}

		if err := seedCollection(txApp, "overheads", seedOverheads, func(r *core.Record, d overheadDef) {
			r.Set("name", d.name)
			r.Set("value", d.value)
			r.Set("description", d.description)
		}); err != nil {
			return err
		}

		if err := seedCollection(txApp, "standard_rates", seedRates, func(r *core.Record, d rateDef) {
			r.Set("group", d.group)
			r.Set("type", d.typ)
			r.Set("final_rate", d.rate)
		}); err != nil {
			return err
		}

		if err := seedCollection(txApp, "papers", seedPapers, func(r *core.Record, d paperDef) {
			r.Set("paper_name", d.name)
			r.Set("company", d.company)
			r.Set("gsm", d.gsm)
			r.Set("price_per_sheet", d.pricePerSheet)
			r.Set("length", d.length)
			r.Set("breadth", d.breadth)
			r.Set("freight_per_kg", d.freightPerKg)
		}); err != nil {
			return err
		}

		if err := seedCollection(txApp, "dies", seedDies, func(r *core.Record, d dieDef) {
			r.Set("die_code", d.code)
			r.Set("die_name", d.name)
			r.Set("job_type", d.jobType)
			r.Set("type", d.dieType)
			r.Set("frags", d.frags)
			r.Set("product_size_l", d.productL)
			r.Set("product_size_b", d.productB)
			r.Set("die_size_l", d.dieL)
			r.Set("die_size_b", d.dieB)
			r.Set("price", d.price)
		}); err != nil {
			return err
		}

		log.Printf("seed: inserted %d tiers, %d overheads, %d rates, %d papers, %d dies\n",
			len(seedTiers), len(seedOverheads), len(seedRates), len(seedPapers), len(seedDies))
		return nil
	})
}

func seedCollection[T any](app core.App, name string, defs []T, fill func(*core.Record, T)) error {
	col, err := app.FindCollectionByNameOrId(name)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", name, err)
	}
	for _, d := range defs {
		r := core.NewRecord(col)
		fill(r, d)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save %s record: %w", name, err)
		}
	}
	return nil
}
