package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// MigrateClientDefaults fills client_type and is_active on clients created
// before those fields existed. Safe to call on every startup.
func MigrateClientDefaults(app core.App) error {
	clients, err := app.FindRecordsByFilter("clients", "client_type = ''", "", 0, 0, nil)
	if err != nil {
		return fmt.Errorf("migrate: could not query clients without a type: %w", err)
	}
	if len(clients) == 0 {
		return nil
	}

	log.Printf("migrate: found %d client(s) without a type -- defaulting to Direct...\n", len(clients))

	for _, c := range clients {
		c.Set("client_type", "Direct")
		c.Set("is_active", true)
		if err := app.Save(c); err != nil {
			log.Printf("migrate: failed to update client %s: %v\n", c.Id, err)
		}
	}
	return nil
}

// MigrateEstimateVersions gives estimates without a version_id the first
// version and back-fills orders' version_id from their estimate.
// Safe to call on every startup.
func MigrateEstimateVersions(app core.App) error {
	estimates, err := app.FindRecordsByFilter("estimates", "version_id = ''", "", 0, 0, nil)
	if err != nil {
		return fmt.Errorf("migrate: could not query unversioned estimates: %w", err)
	}
	for _, e := range estimates {
		e.Set("version_id", "1")
		if err := app.Save(e); err != nil {
			log.Printf("migrate: failed to version estimate %s: %v\n", e.Id, err)
		}
	}

	orders, err := app.FindRecordsByFilter("orders", "version_id = '' && estimate != ''", "", 0, 0, nil)
	if err != nil {
		return fmt.Errorf("migrate: could not query unversioned orders: %w", err)
	}
	for _, o := range orders {
		e, err := app.FindRecordById("estimates", o.GetString("estimate"))
		if err != nil {
			continue
		}
		o.Set("version_id", e.GetString("version_id"))
		if err := app.Save(o); err != nil {
			log.Printf("migrate: failed to version order %s: %v\n", o.Id, err)
		}
	}

	if n := len(estimates) + len(orders); n > 0 {
		log.Printf("migrate: versioned %d estimate(s) and %d order(s).\n", len(estimates), len(orders))
	}
	return nil
}
