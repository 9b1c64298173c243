package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures every shop collection exists and that
// the built-in users auth collection carries the shop's role fields.
func Setup(app core.App) {
	tiers := ensureCollection(app, "loyalty_tiers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "tier_code", Required: true})
		c.Fields.Add(&core.NumberField{Name: "min_orders", OnlyInt: true, Min: floatPtr(0)})
		c.Fields.Add(&core.NumberField{Name: "discount_percent", Min: floatPtr(0), Max: floatPtr(100)})
		c.Fields.Add(&core.TextField{Name: "color"})
		c.Fields.Add(&core.TextField{Name: "description"})
		addTimestamps(c)
		c.AddIndex("idx_loyalty_tiers_code", true, "tier_code", "")
	})

	clients := ensureCollection(app, "clients", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "client_code", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "client_type",
			Values:    []string{"Direct", "B2B"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "contact_person"})
		c.Fields.Add(&core.TextField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "address"})
		c.Fields.Add(&core.TextField{Name: "city"})
		c.Fields.Add(&core.TextField{Name: "state"})
		c.Fields.Add(&core.TextField{Name: "pin_code"})
		c.Fields.Add(&core.TextField{Name: "gstin"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.RelationField{
			Name:         "loyalty_tier",
			CollectionId: tiers.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.NumberField{Name: "order_count", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "total_spend"})
		c.Fields.Add(&core.BoolField{Name: "is_active"})
		addTimestamps(c)
		c.AddIndex("idx_clients_code", true, "client_code", "")
	})

	ensureCollection(app, "dies", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "die_code", Required: true})
		c.Fields.Add(&core.TextField{Name: "die_name"})
		c.Fields.Add(&core.TextField{Name: "job_type"})
		c.Fields.Add(&core.TextField{Name: "type"})
		c.Fields.Add(&core.NumberField{Name: "frags", OnlyInt: true, Min: floatPtr(1)})
		c.Fields.Add(&core.NumberField{Name: "product_size_l"})
		c.Fields.Add(&core.NumberField{Name: "product_size_b"})
		c.Fields.Add(&core.NumberField{Name: "die_size_l"})
		c.Fields.Add(&core.NumberField{Name: "die_size_b"})
		c.Fields.Add(&core.NumberField{Name: "price"})
		c.Fields.Add(&core.FileField{
			Name:      "image",
			MaxSelect: 1,
			MaxSize:   5 << 20,
			MimeTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			Thumbs:    []string{"200x200"},
		})
		addTimestamps(c)
		c.AddIndex("idx_dies_code", true, "die_code", "")
	})

	ensureCollection(app, "papers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "paper_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "company"})
		c.Fields.Add(&core.NumberField{Name: "gsm"})
		c.Fields.Add(&core.NumberField{Name: "price_per_sheet"})
		c.Fields.Add(&core.NumberField{Name: "length"})
		c.Fields.Add(&core.NumberField{Name: "breadth"})
		c.Fields.Add(&core.NumberField{Name: "freight_per_kg"})
		c.Fields.Add(&core.NumberField{Name: "rate_per_gram"})
		c.Fields.Add(&core.NumberField{Name: "area"})
		c.Fields.Add(&core.NumberField{Name: "final_rate"})
		addTimestamps(c)
	})

	ensureCollection(app, "overheads", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "value"})
		c.Fields.Add(&core.TextField{Name: "description"})
		addTimestamps(c)
		c.AddIndex("idx_overheads_name", true, "name", "")
	})

	ensureCollection(app, "standard_rates", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "group", Required: true})
		c.Fields.Add(&core.TextField{Name: "type", Required: true})
		c.Fields.Add(&core.NumberField{Name: "final_rate"})
		c.Fields.Add(&core.TextField{Name: "description"})
		addTimestamps(c)
		c.AddIndex("idx_standard_rates_group_type", true, "`group`, `type`", "")
	})

	users := ensureUsers(app, clients)

	estimates := ensureCollection(app, "estimates", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:         "client",
			Required:     true,
			CollectionId: clients.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "version_id"})
		addJobFields(c)
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"Pending", "Approved", "Rejected", "Cancelled", "Moved to Orders"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.BoolField{Name: "moved_to_orders"})
		c.Fields.Add(&core.BoolField{Name: "is_canceled"})
		c.Fields.Add(&core.RelationField{
			Name:         "created_by",
			CollectionId: users.Id,
			MaxSelect:    1,
		})
		addTimestamps(c)
	})

	orders := ensureCollection(app, "orders", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:         "client",
			Required:     true,
			CollectionId: clients.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "estimate",
			CollectionId: estimates.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "version_id"})
		c.Fields.Add(&core.TextField{Name: "order_number", Required: true})
		c.Fields.Add(&core.DateField{Name: "order_date"})
		addJobFields(c)
		c.Fields.Add(&core.TextField{Name: "loyalty_tier_name"})
		c.Fields.Add(&core.NumberField{Name: "discount_percent"})
		c.Fields.Add(&core.NumberField{Name: "discount_amount"})
		c.Fields.Add(&core.SelectField{
			Name: "stage",
			Values: []string{
				"Not started", "Design", "Positives", "Printing",
				"Quality check", "Delivery", "Completed",
			},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "delivery_date"})
		c.Fields.Add(&core.BoolField{Name: "is_canceled"})
		addTimestamps(c)
		c.AddIndex("idx_orders_number", true, "order_number", "")
	})

	invoices := ensureCollection(app, "invoices", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:         "client",
			Required:     true,
			CollectionId: clients.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "orders",
			CollectionId: orders.Id,
			MaxSelect:    999,
		})
		c.Fields.Add(&core.TextField{Name: "invoice_number", Required: true})
		c.Fields.Add(&core.DateField{Name: "invoice_date"})
		c.Fields.Add(&core.JSONField{Name: "lines"})
		c.Fields.Add(&core.JSONField{Name: "totals"})
		c.Fields.Add(&core.NumberField{Name: "grand_total"})
		c.Fields.Add(&core.TextField{Name: "share_token"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"Draft", "Issued", "Paid"},
			MaxSelect: 1,
		})
		addTimestamps(c)
		c.AddIndex("idx_invoices_number", true, "invoice_number", "")
		c.AddIndex("idx_invoices_share_token", false, "share_token", "")
	})

	// orders and invoices reference each other, so the back-link is added
	// once both exist.
	ensureFields(app, orders, &core.RelationField{
		Name:         "invoice",
		CollectionId: invoices.Id,
		MaxSelect:    1,
	})

	ensureCollection(app, "notifications", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "user",
			CollectionId:  users.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "role"})
		c.Fields.Add(&core.TextField{Name: "type"})
		c.Fields.Add(&core.TextField{Name: "title"})
		c.Fields.Add(&core.TextField{Name: "message"})
		c.Fields.Add(&core.TextField{Name: "entity_id"})
		c.Fields.Add(&core.BoolField{Name: "read"})
		addTimestamps(c)
	})
}

// addJobFields adds the columns shared by estimates and orders.
func addJobFields(c *core.Collection) {
	c.Fields.Add(&core.TextField{Name: "project_name"})
	c.Fields.Add(&core.TextField{Name: "job_type"})
	c.Fields.Add(&core.NumberField{Name: "quantity", OnlyInt: true, Min: floatPtr(0)})
	c.Fields.Add(&core.TextField{Name: "die_code"})
	c.Fields.Add(&core.JSONField{Name: "state"})
	c.Fields.Add(&core.JSONField{Name: "calculations"})
	c.Fields.Add(&core.NumberField{Name: "total_amount"})
}

func addTimestamps(c *core.Collection) {
	c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
}

// ensureUsers adds the shop fields to the users auth collection, creating the
// collection when the app has none.
func ensureUsers(app core.App, clients *core.Collection) *core.Collection {
	users, err := app.FindCollectionByNameOrId("users")
	if err != nil || users == nil {
		users = core.NewAuthCollection("users")
		if err := app.Save(users); err != nil {
			log.Fatalf("Failed to create collection %q: %v", "users", err)
		}
		fmt.Printf("Created collection %q (id=%s)\n", "users", users.Id)
	}

	ensureFields(app, users,
		&core.TextField{Name: "name"},
		&core.SelectField{
			Name:      "role",
			Values:    []string{"admin", "staff", "b2b", "production"},
			MaxSelect: 1,
		},
		&core.RelationField{
			Name:         "client",
			CollectionId: clients.Id,
			MaxSelect:    1,
		},
		&core.BoolField{Name: "is_active"},
	)
	return users
}

// ensureFields adds any of fields missing from collection and saves it.
func ensureFields(app core.App, collection *core.Collection, fields ...core.Field) {
	changed := false
	for _, f := range fields {
		if collection.Fields.GetByName(f.GetName()) != nil {
			continue
		}
		collection.Fields.Add(f)
		changed = true
	}
	if !changed {
		return
	}
	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to update collection %q: %v", collection.Name, err)
	}
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}

func floatPtr(v float64) *float64 {
	return &v
}
