package services

import (
	"errors"
	"testing"
	"time"

	"printshop/testhelpers"
)

func TestStageProgress(t *testing.T) {
	tests := map[string]float64{
		StageNotStarted: 0,
		StagePrinting:   50,
		StageDelivery:   83.33,
		StageCompleted:  100,
		"Laminating":    0,
	}
	for stage, want := range tests {
		if got := StageProgress(stage); got != want {
			t.Errorf("StageProgress(%q) = %v, want %v", stage, got, want)
		}
	}
}

func TestValidateStageChange(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Acme", ClientTypeDirect)
	order := testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)

	if err := ValidateStageChange(order, StageDesign); err != nil {
		t.Errorf("Not started -> Design: %v", err)
	}
	if err := ValidateStageChange(order, "Laminating"); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}

	order.Set("stage", StageCompleted)
	if err := ValidateStageChange(order, StagePrinting); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("completed orders cannot go back, got %v", err)
	}

	order.Set("stage", StagePrinting)
	order.Set("is_canceled", true)
	if err := ValidateStageChange(order, StageDelivery); !errors.Is(err, ErrOrderCanceled) {
		t.Errorf("expected ErrOrderCanceled, got %v", err)
	}
}

func TestMoveEstimateToOrder_RereadsDiscount(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tier := testhelpers.CreateTestTier(t, app, "Gold", 0, 10)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Acme", ClientTypeB2B)
	estimate := testhelpers.CreateTestEstimate(t, app, client.Id, "1")

	// the tier is granted after the estimate was priced
	client.Set("loyalty_tier", tier.Id)
	if err := app.Save(client); err != nil {
		t.Fatalf("set tier: %v", err)
	}

	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	order, err := MoveEstimateToOrder(app, estimate.Id, "ORD", now)
	if err != nil {
		t.Fatalf("MoveEstimateToOrder() error = %v", err)
	}
	if order.GetString("order_number") != "ORD-25-26-0001" {
		t.Errorf("order number = %q", order.GetString("order_number"))
	}
	if order.GetFloat("discount_percent") != 10 || order.GetString("loyalty_tier_name") != "Gold" {
		t.Errorf("discount not applied: %v %q", order.GetFloat("discount_percent"), order.GetString("loyalty_tier_name"))
	}
	// 1000 less 10%, plus 18% GST
	if got := order.GetFloat("total_amount"); got != 1062 {
		t.Errorf("total_amount = %v, want 1062", got)
	}
	if order.GetString("stage") != StageNotStarted || order.GetString("estimate") != estimate.Id {
		t.Errorf("unexpected order fields: stage=%q estimate=%q", order.GetString("stage"), order.GetString("estimate"))
	}

	locked, err := app.FindRecordById("estimates", estimate.Id)
	if err != nil {
		t.Fatalf("reload estimate: %v", err)
	}
	if !locked.GetBool("moved_to_orders") || locked.GetString("status") != EstimateMoved {
		t.Error("estimate not locked")
	}

	if _, err := MoveEstimateToOrder(app, estimate.Id, "ORD", now); !errors.Is(err, ErrEstimateLocked) {
		t.Errorf("expected ErrEstimateLocked on second move, got %v", err)
	}
}

func TestMoveEstimateToOrder_CanceledEstimate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Acme", ClientTypeDirect)
	estimate := testhelpers.CreateTestEstimate(t, app, client.Id, "1")
	estimate.Set("is_canceled", true)
	if err := app.Save(estimate); err != nil {
		t.Fatalf("cancel estimate: %v", err)
	}

	if _, err := MoveEstimateToOrder(app, estimate.Id, "ORD", time.Now()); !errors.Is(err, ErrEstimateLocked) {
		t.Errorf("expected ErrEstimateLocked, got %v", err)
	}
	if n, _ := app.CountRecords("orders"); n != 0 {
		t.Errorf("expected no order created, got %d", n)
	}
}
