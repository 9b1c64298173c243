package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the per-role landing summary. Fields not relevant to the role
// stay empty.
type Dashboard struct {
	Role Role `json:"role"`

	Clients          int64            `json:"clients,omitempty"`
	PendingEstimates int64            `json:"pendingEstimates,omitempty"`
	OpenOrders       int64            `json:"openOrders,omitempty"`
	OrdersByStage    map[string]int64 `json:"ordersByStage,omitempty"`
	UninvoicedOrders int64            `json:"uninvoicedOrders,omitempty"`
	MonthRevenue     float64          `json:"monthRevenue,omitempty"`
	UnreadCount      int64            `json:"unreadNotifications"`

	Loyalty *LoyaltyStatus `json:"loyalty,omitempty"`
}

// LoyaltyStatus is what a B2B user sees about their own tier.
type LoyaltyStatus struct {
	OrderCount      int     `json:"orderCount"`
	CurrentTier     string  `json:"currentTier"`
	DiscountPercent float64 `json:"discount"`
	NextTier        string  `json:"nextTier,omitempty"`
	OrdersToNext    int     `json:"ordersToNextTier,omitempty"`
}

// DashboardViewer identifies who is asking.
type DashboardViewer struct {
	UserID   string
	Role     Role
	ClientID string
}

// BuildDashboard runs the role's aggregate queries concurrently.
func BuildDashboard(ctx context.Context, app core.App, viewer DashboardViewer, now time.Time) (*Dashboard, error) {
	d := &Dashboard{Role: viewer.Role}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := countRecords(gCtx, app, "notifications", dbx.Or(
			dbx.HashExp{"user": viewer.UserID, "read": false},
			dbx.HashExp{"user": "", "role": string(viewer.Role), "read": false},
		))
		d.UnreadCount = n
		return err
	})

	switch viewer.Role {
	case RoleAdmin, RoleStaff:
		g.Go(func() error {
			n, err := countRecords(gCtx, app, "clients", dbx.HashExp{"is_active": true})
			d.Clients = n
			return err
		})
		g.Go(func() error {
			n, err := countRecords(gCtx, app, "estimates", dbx.HashExp{"status": EstimatePending, "is_canceled": false})
			d.PendingEstimates = n
			return err
		})
		g.Go(func() error {
			n, err := countRecords(gCtx, app, "orders", dbx.HashExp{"invoice": "", "is_canceled": false})
			d.UninvoicedOrders = n
			return err
		})
		g.Go(func() error {
			counts, open, err := ordersByStage(gCtx, app, nil)
			d.OrdersByStage = counts
			d.OpenOrders = open
			return err
		})
		if viewer.Role == RoleAdmin {
			g.Go(func() error {
				rev, err := monthRevenue(gCtx, app, now)
				d.MonthRevenue = rev
				return err
			})
		}

	case RoleProduction:
		g.Go(func() error {
			counts, open, err := ordersByStage(gCtx, app, nil)
			d.OrdersByStage = counts
			d.OpenOrders = open
			return err
		})

	case RoleB2B:
		if viewer.ClientID == "" {
			break
		}
		scope := dbx.HashExp{"client": viewer.ClientID}
		g.Go(func() error {
			n, err := countRecords(gCtx, app, "estimates", dbx.HashExp{"client": viewer.ClientID, "status": EstimatePending, "is_canceled": false})
			d.PendingEstimates = n
			return err
		})
		g.Go(func() error {
			counts, open, err := ordersByStage(gCtx, app, scope)
			d.OrdersByStage = counts
			d.OpenOrders = open
			return err
		})
		g.Go(func() error {
			status, err := loyaltyStatus(app, viewer.ClientID)
			d.Loyalty = status
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	return d, nil
}

// countRecords is app.CountRecords bound to ctx, so a failed sibling query
// stops the rest.
func countRecords(ctx context.Context, app core.App, collection string, exprs ...dbx.Expression) (int64, error) {
	var total int64
	q := app.RecordQuery(collection).Select("count(*)")
	for _, expr := range exprs {
		q.AndWhere(expr)
	}
	err := q.WithContext(ctx).Row(&total)
	return total, err
}

func ordersByStage(ctx context.Context, app core.App, scope dbx.Expression) (map[string]int64, int64, error) {
	counts := make(map[string]int64, len(OrderStages))
	var open int64
	for _, stage := range OrderStages {
		exprs := []dbx.Expression{dbx.HashExp{"stage": stage, "is_canceled": false}}
		if scope != nil {
			exprs = append(exprs, scope)
		}
		n, err := countRecords(ctx, app, "orders", exprs...)
		if err != nil {
			return nil, 0, err
		}
		counts[stage] = n
		if stage != StageCompleted {
			open += n
		}
	}
	return counts, open, nil
}

func monthRevenue(ctx context.Context, app core.App, now time.Time) (float64, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var invoices []*core.Record
	err := app.RecordQuery("invoices").
		AndWhere(dbx.NewExp("invoice_date >= {:start}", dbx.Params{"start": start.Format("2006-01-02 15:04:05.000Z")})).
		WithContext(ctx).
		All(&invoices)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, inv := range invoices {
		total += inv.GetFloat("grand_total")
	}
	return Round2(total), nil
}

func loyaltyStatus(app core.App, clientID string) (*LoyaltyStatus, error) {
	client, err := app.FindRecordById("clients", clientID)
	if err != nil {
		return nil, err
	}
	tiers, err := LoadLoyaltyTiers(app)
	if err != nil {
		return nil, err
	}
	count := client.GetInt("order_count")
	status := &LoyaltyStatus{OrderCount: count}
	if t, ok := TierForOrderCount(tiers, count); ok {
		status.CurrentTier = t.Name
		status.DiscountPercent = t.DiscountPercent
	}
	if t, toGo, ok := NextTier(tiers, count); ok {
		status.NextTier = t.Name
		status.OrdersToNext = toGo
	}
	return status, nil
}
