package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

// tierView is a loyalty tier with the number of clients currently in it.
type tierView struct {
	services.LoyaltyTier
	ClientCount int64 `json:"clientCount"`
}

// HandleTierList returns tiers in threshold order with their member counts.
func HandleTierList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tiers, err := services.LoadLoyaltyTiers(app)
		if err != nil {
			log.Printf("loyalty: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load loyalty tiers")
		}

		out := make([]tierView, 0, len(tiers))
		for _, t := range tiers {
			n, err := app.CountRecords("clients", dbx.HashExp{"loyalty_tier": t.ID})
			if err != nil {
				log.Printf("loyalty: count clients of %s: %v", t.ID, err)
			}
			out = append(out, tierView{LoyaltyTier: t, ClientCount: n})
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleTierSave creates a tier, or updates the one named by {id}, then
// re-syncs client tiers so thresholds take effect immediately.
func HandleTierSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.TierInput
		if err := e.BindBody(&in); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		in.Name = strings.TrimSpace(in.Name)
		in.TierCode = strings.ToUpper(strings.TrimSpace(in.TierCode))
		if err := in.Validate(); err != nil {
			return validationError(e, "loyalty", err)
		}

		rec, status, err := findOrNewRecord(app, "loyalty_tiers", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Tier not found")
		}
		if other, err := app.FindFirstRecordByData("loyalty_tiers", "tier_code", in.TierCode); err == nil && other.Id != rec.Id {
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":  "Please fix the highlighted fields",
				"fields": map[string]string{"tierCode": "tier code already exists"},
			})
		}

		rec.Set("name", in.Name)
		rec.Set("tier_code", in.TierCode)
		rec.Set("min_orders", in.MinOrders)
		rec.Set("discount_percent", in.DiscountPercent)
		rec.Set("color", in.Color)
		rec.Set("description", strings.TrimSpace(in.Description))
		if err := app.Save(rec); err != nil {
			log.Printf("loyalty: could not save tier %s: %v", in.TierCode, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if _, err := services.SyncClientLoyalty(app); err != nil {
			log.Printf("loyalty: resync after tier save failed: %v", err)
		}
		return e.JSON(status, rec.PublicExport())
	}
}

// HandleTierDelete removes a tier and re-syncs clients that were in it.
func HandleTierDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("loyalty_tiers", e.Request.PathValue("id"))
		if err != nil {
			return jsonError(e, http.StatusNotFound, "Tier not found")
		}
		if err := app.Delete(rec); err != nil {
			log.Printf("loyalty: could not delete tier %s: %v", rec.Id, err)
			return jsonError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		if _, err := services.SyncClientLoyalty(app); err != nil {
			log.Printf("loyalty: resync after tier delete failed: %v", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleLoyaltySync recounts orders for every B2B client, or for ?client=.
func HandleLoyaltySync(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var ids []string
		if id := e.Request.URL.Query().Get("client"); id != "" {
			ids = append(ids, id)
		}
		result, err := services.SyncClientLoyalty(app, ids...)
		if err != nil {
			return serviceError(e, "loyalty_sync", err)
		}
		return e.JSON(http.StatusOK, result)
	}
}
