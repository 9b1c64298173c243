package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// Production stages in order.
const (
	StageNotStarted   = "Not started"
	StageDesign       = "Design"
	StagePositives    = "Positives"
	StagePrinting     = "Printing"
	StageQualityCheck = "Quality check"
	StageDelivery     = "Delivery"
	StageCompleted    = "Completed"
)

var OrderStages = []string{
	StageNotStarted, StageDesign, StagePositives, StagePrinting,
	StageQualityCheck, StageDelivery, StageCompleted,
}

var (
	ErrInvalidStage  = errors.New("invalid order stage")
	ErrOrderCanceled = errors.New("order is cancelled")
)

// ValidateStageChange allows moving to any known stage except out of Completed
// or on a cancelled order.
func ValidateStageChange(order *core.Record, stage string) error {
	if !slices.Contains(OrderStages, stage) {
		return fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	if order.GetBool("is_canceled") {
		return ErrOrderCanceled
	}
	if order.GetString("stage") == StageCompleted && stage != StageCompleted {
		return fmt.Errorf("%w: order already completed", ErrInvalidStage)
	}
	return nil
}

// StageProgress is the percentage of stages passed, 0 for unknown stages.
func StageProgress(stage string) float64 {
	i := slices.Index(OrderStages, stage)
	if i < 0 {
		return 0
	}
	return Round2(float64(i) / float64(len(OrderStages)-1) * 100)
}

// MoveEstimateToOrder converts an estimate into an order inside a transaction:
// the loyalty discount is re-read from the client at this moment, the order is
// numbered, and the estimate is locked.
func MoveEstimateToOrder(app core.App, estimateID, orderPrefix string, now time.Time) (*core.Record, error) {
	var order *core.Record

	err := app.RunInTransaction(func(txApp core.App) error {
		estimate, err := txApp.FindRecordById("estimates", estimateID)
		if err != nil {
			return fmt.Errorf("estimate %s: %w", estimateID, err)
		}
		if estimate.GetBool("moved_to_orders") || estimate.GetBool("is_canceled") {
			return ErrEstimateLocked
		}

		state, err := StateFromRecord(estimate)
		if err != nil {
			return err
		}
		breakdown, err := BreakdownFromRecord(estimate)
		if err != nil {
			return err
		}

		client, err := txApp.FindRecordById("clients", estimate.GetString("client"))
		if err != nil {
			return fmt.Errorf("client of estimate %s: %w", estimateID, err)
		}
		discount, tierName, err := ClientDiscountPercent(txApp, client)
		if err != nil {
			return err
		}
		breakdown = ApplyLoyaltyDiscount(breakdown, discount)

		number, err := NextDocumentNumber(txApp, "orders", "order_number", orderPrefix, 4, now)
		if err != nil {
			return err
		}

		col, err := txApp.FindCollectionByNameOrId("orders")
		if err != nil {
			return fmt.Errorf("find orders collection: %w", err)
		}
		order = core.NewRecord(col)
		ApplyStateToEstimate(order, state, breakdown)
		order.Set("estimate", estimate.Id)
		order.Set("version_id", estimate.GetString("version_id"))
		order.Set("order_number", number)
		order.Set("order_date", now)
		order.Set("delivery_date", state.OrderAndPaper.DeliveryDate)
		order.Set("stage", StageNotStarted)
		order.Set("loyalty_tier_name", tierName)
		order.Set("discount_percent", breakdown.LoyaltyDiscountPercent)
		order.Set("discount_amount", breakdown.LoyaltyDiscountAmount)
		order.Set("is_canceled", false)
		if err := txApp.Save(order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}

		estimate.Set("moved_to_orders", true)
		estimate.Set("status", EstimateMoved)
		if err := txApp.Save(estimate); err != nil {
			return fmt.Errorf("lock estimate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
