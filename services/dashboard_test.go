package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop/testhelpers"
)

func TestBuildDashboard_AdminCounts(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "C-001", "Acme", ClientTypeDirect)
	testhelpers.CreateTestEstimate(t, app, client.Id, "1")
	testhelpers.CreateTestOrder(t, app, client.Id, "ORD-25-26-0001", 1180)
	admin := testhelpers.CreateTestUser(t, app, "admin@example.com", "admin", "")

	d, err := BuildDashboard(context.Background(), app, DashboardViewer{UserID: admin.Id, Role: RoleAdmin}, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Clients)
	assert.EqualValues(t, 1, d.PendingEstimates)
	assert.EqualValues(t, 1, d.UninvoicedOrders)
	assert.EqualValues(t, 1, d.OpenOrders)
}

func TestBuildDashboard_CancelledContext(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildDashboard(ctx, app, DashboardViewer{Role: RoleProduction}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
