package services

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const (
	ClientTypeDirect = "Direct"
	ClientTypeB2B    = "B2B"
)

// LoyaltyTier mirrors a loyalty_tiers record.
type LoyaltyTier struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TierCode        string  `json:"tierCode"`
	MinOrders       int     `json:"minOrders"`
	DiscountPercent float64 `json:"discount"`
	Color           string  `json:"color"`
	Description     string  `json:"description"`
}

func TierFromRecord(rec *core.Record) LoyaltyTier {
	return LoyaltyTier{
		ID:              rec.Id,
		Name:            rec.GetString("name"),
		TierCode:        rec.GetString("tier_code"),
		MinOrders:       rec.GetInt("min_orders"),
		DiscountPercent: rec.GetFloat("discount_percent"),
		Color:           rec.GetString("color"),
		Description:     rec.GetString("description"),
	}
}

// LoadLoyaltyTiers returns all tiers ordered by min_orders ascending.
func LoadLoyaltyTiers(app core.App) ([]LoyaltyTier, error) {
	records, err := app.FindRecordsByFilter("loyalty_tiers", "1=1", "min_orders", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load loyalty tiers: %w", err)
	}
	tiers := make([]LoyaltyTier, 0, len(records))
	for _, r := range records {
		tiers = append(tiers, TierFromRecord(r))
	}
	return tiers, nil
}

// TierForOrderCount picks the tier with the highest threshold not above count.
func TierForOrderCount(tiers []LoyaltyTier, count int) (LoyaltyTier, bool) {
	var best LoyaltyTier
	found := false
	for _, t := range tiers {
		if t.MinOrders <= count && (!found || t.MinOrders > best.MinOrders) {
			best = t
			found = true
		}
	}
	return best, found
}

// NextTier returns the first tier above count and how many more orders reach it.
func NextTier(tiers []LoyaltyTier, count int) (LoyaltyTier, int, bool) {
	sorted := slices.Clone(tiers)
	slices.SortFunc(sorted, func(a, b LoyaltyTier) int { return cmp.Compare(a.MinOrders, b.MinOrders) })
	for _, t := range sorted {
		if t.MinOrders > count {
			return t, t.MinOrders - count, true
		}
	}
	return LoyaltyTier{}, 0, false
}

// ClientDiscountPercent is the loyalty discount applying to a client record:
// only B2B clients with a tier get one. A tier id that no longer resolves
// means no discount.
func ClientDiscountPercent(app core.App, client *core.Record) (float64, string, error) {
	if client == nil || client.GetString("client_type") != ClientTypeB2B {
		return 0, "", nil
	}
	tierID := client.GetString("loyalty_tier")
	if tierID == "" {
		return 0, "", nil
	}
	tier, err := app.FindRecordById("loyalty_tiers", tierID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("loyalty tier %s: %w", tierID, err)
	}
	return tier.GetFloat("discount_percent"), tier.GetString("name"), nil
}

// TierChange records one client whose tier or order count moved during a sync.
type TierChange struct {
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	FromTier   string `json:"fromTier"`
	ToTier     string `json:"toTier"`
	OrderCount int    `json:"orderCount"`
	Upgraded   bool   `json:"upgraded"`
}

type SyncResult struct {
	Checked int          `json:"checked"`
	Updated int          `json:"updated"`
	Changes []TierChange `json:"changes"`
}

// SyncClientLoyalty recounts non-cancelled orders for B2B clients (all of
// them when clientIDs is empty) and writes order_count, total_spend and
// loyalty_tier back only when something changed. Only a move to a tier with
// a higher threshold notifies the client's users.
func SyncClientLoyalty(app core.App, clientIDs ...string) (SyncResult, error) {
	var result SyncResult

	tiers, err := LoadLoyaltyTiers(app)
	if err != nil {
		return result, err
	}
	tierByID := make(map[string]LoyaltyTier, len(tiers))
	for _, t := range tiers {
		tierByID[t.ID] = t
	}

	var clients []*core.Record
	if len(clientIDs) == 0 {
		clients, err = app.FindAllRecords("clients", dbx.HashExp{"client_type": ClientTypeB2B})
	} else {
		clients, err = app.FindRecordsByIds("clients", clientIDs)
	}
	if err != nil {
		return result, fmt.Errorf("load clients: %w", err)
	}

	for _, client := range clients {
		if client.GetString("client_type") != ClientTypeB2B {
			continue
		}
		result.Checked++

		orders, err := app.FindRecordsByFilter(
			"orders",
			"client = {:clientId} && is_canceled = false",
			"", 0, 0,
			map[string]any{"clientId": client.Id},
		)
		if err != nil {
			return result, fmt.Errorf("load orders for client %s: %w", client.Id, err)
		}
		var spend float64
		for _, o := range orders {
			spend += o.GetFloat("total_amount")
		}
		count := len(orders)

		newTier, hasTier := TierForOrderCount(tiers, count)
		newTierID := ""
		if hasTier {
			newTierID = newTier.ID
		}
		oldTierID := client.GetString("loyalty_tier")
		previousCount := client.GetInt("order_count")

		if previousCount == count &&
			Round2(client.GetFloat("total_spend")) == Round2(spend) &&
			oldTierID == newTierID {
			continue
		}

		client.Set("order_count", count)
		client.Set("total_spend", Round2(spend))
		client.Set("loyalty_tier", newTierID)
		if err := app.Save(client); err != nil {
			return result, fmt.Errorf("update client %s: %w", client.Id, err)
		}
		result.Updated++

		if oldTierID == newTierID {
			continue
		}

		oldTier, hadTier := tierByID[oldTierID]
		if !hadTier {
			// The relation is empty or its tier was deleted: measure against
			// the tier the stored order count already qualified for.
			oldTier, hadTier = TierForOrderCount(tiers, previousCount)
		}
		change := TierChange{
			ClientID:   client.Id,
			ClientName: client.GetString("name"),
			FromTier:   tierByID[oldTierID].Name,
			ToTier:     newTier.Name,
			OrderCount: count,
			Upgraded:   hasTier && (!hadTier || newTier.MinOrders > oldTier.MinOrders),
		}
		result.Changes = append(result.Changes, change)

		if change.Upgraded {
			n := Notification{
				Type:     NotifyTierUpgrade,
				Title:    "Loyalty tier upgraded",
				Message:  fmt.Sprintf("%s is now %s with a %s discount.", change.ClientName, newTier.Name, FormatPercent(newTier.DiscountPercent)),
				EntityID: client.Id,
			}
			if _, err := NotifyClientUsers(app, client.Id, n); err != nil {
				app.Logger().Warn("loyalty: tier upgrade notification failed", "client", client.Id, "error", err)
			}
		}
	}

	app.Logger().Info("loyalty: sync complete",
		"checked", result.Checked,
		"updated", result.Updated,
		"tierChanges", len(result.Changes),
	)
	return result, nil
}
