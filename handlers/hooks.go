package handlers

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"printshop/services"
)

// RegisterHooks binds the record hooks that keep derived data in step no
// matter which route (or the admin UI) wrote the record.
func RegisterHooks(app core.App) {
	// papers: area, rate per gram and final rate follow from the inputs
	app.OnRecordCreate("papers").BindFunc(func(e *core.RecordEvent) error {
		services.ApplyPaperDerived(e.Record)
		return e.Next()
	})
	app.OnRecordUpdate("papers").BindFunc(func(e *core.RecordEvent) error {
		services.ApplyPaperDerived(e.Record)
		return e.Next()
	})

	// users: b2b accounts must be tied to a client
	checkUserClient := func(e *core.RecordEvent) error {
		if e.Record.GetString("role") == string(services.RoleB2B) && e.Record.GetString("client") == "" {
			return validation.Errors{
				"client": validation.NewError("validation_b2b_client", "b2b users must belong to a client"),
			}
		}
		return e.Next()
	}
	app.OnRecordCreate("users").BindFunc(checkUserClient)
	app.OnRecordUpdate("users").BindFunc(checkUserClient)

	// orders: new orders count towards the client's loyalty tier
	app.OnRecordAfterCreateSuccess("orders").BindFunc(func(e *core.RecordEvent) error {
		order := e.Record
		clientID := order.GetString("client")
		logger := e.App.Logger().With("order", order.Id, "client", clientID)

		result, err := services.SyncClientLoyalty(e.App, clientID)
		if err != nil {
			logger.Error("loyalty sync after order create failed", "error", err)
		} else if result.Updated > 0 {
			logger.Info("client loyalty updated", "changes", result.Changes)
		}

		_, err = services.NotifyClientUsers(e.App, clientID, services.Notification{
			Type:     services.NotifyOrderCreated,
			Title:    "Order " + order.GetString("order_number") + " confirmed",
			Message:  fmt.Sprintf("%s (%d pcs) is booked for production.", order.GetString("project_name"), order.GetInt("quantity")),
			EntityID: order.Id,
		})
		if err != nil {
			logger.Error("order notification failed", "error", err)
		}
		return e.Next()
	})
}
