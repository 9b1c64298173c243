package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"printshop/collections"
	"printshop/config"
	"printshop/handlers"
	"printshop/services"
)

func main() {
	cfgPath := config.DefaultPath
	if p := os.Getenv("SHOP_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := pocketbase.New()

	handlers.RegisterHooks(app)

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create collections and load the default rates, overheads, tiers, papers and dies",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			return collections.Seed(app)
		},
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "loyalty-sync",
		Short: "Recount B2B orders and update client loyalty tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			result, err := services.SyncClientLoyalty(app, args...)
			if err != nil {
				return err
			}
			fmt.Printf("checked %d client(s), updated %d\n", result.Checked, result.Updated)
			for _, c := range result.Changes {
				fmt.Printf("  %s: %q -> %q (%d orders)\n", c.ClientName, c.FromTier, c.ToTier, c.OrderCount)
			}
			return nil
		},
	})

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateClientDefaults(app); err != nil {
			log.Printf("Warning: client defaults migration failed: %v", err)
		}
		if err := collections.MigrateEstimateVersions(app); err != nil {
			log.Printf("Warning: estimate version migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Public share links ───────────────────────────────────
		se.Router.GET("/api/shop/public/invoices/{token}/pdf", handlers.HandleSharedInvoicePDF(app, cfg))

		api := se.Router.Group("/api/shop")
		api.Bind(apis.RequireAuth("users"))

		// ── Session ──────────────────────────────────────────────
		api.GET("/me", handlers.HandleMe(app))
		api.GET("/menu", handlers.HandleMenu(app))
		api.POST("/me/reauthenticate", handlers.HandleReauthenticate(app))

		// ── Dashboard & notifications ────────────────────────────
		api.GET("/dashboard", handlers.HandleDashboard(app)).
			BindFunc(handlers.RequireRole(services.AccessDashboard))
		api.GET("/notifications", handlers.HandleNotificationList(app)).
			BindFunc(handlers.RequireRole(services.AccessNotifications))
		api.POST("/notifications/read", handlers.HandleNotificationsRead(app)).
			BindFunc(handlers.RequireRole(services.AccessNotifications))
		api.POST("/notifications/{id}/read", handlers.HandleNotificationsRead(app)).
			BindFunc(handlers.RequireRole(services.AccessNotifications))

		// ── Clients ──────────────────────────────────────────────
		api.GET("/clients", handlers.HandleClientList(app)).
			BindFunc(handlers.RequireRole(services.AccessClients))
		api.POST("/clients", handlers.HandleClientCreate(app)).
			BindFunc(handlers.RequireRole(services.AccessClientsWrite))
		api.GET("/clients/{id}/versions", handlers.HandleClientVersions(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimates))
		api.GET("/clients/{id}", handlers.HandleClientGet(app)).
			BindFunc(handlers.RequireRole(services.AccessClients))
		api.PUT("/clients/{id}", handlers.HandleClientUpdate(app)).
			BindFunc(handlers.RequireRole(services.AccessClientsWrite))
		api.DELETE("/clients/{id}", handlers.HandleClientDelete(app)).
			BindFunc(handlers.RequireRole(services.AccessClientsWrite))

		// ── Dies (import routes before {id}) ─────────────────────
		api.GET("/dies", handlers.HandleDieSearch(app)).
			BindFunc(handlers.RequireRole(services.AccessDies))
		api.POST("/dies", handlers.HandleDieCreate(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.GET("/dies/import/template", handlers.HandleDieImportTemplate(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.POST("/dies/import", handlers.HandleDieImportValidate(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.POST("/dies/import/commit", handlers.HandleDieImportCommit(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.POST("/dies/import/errors", handlers.HandleDieImportErrorReport(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.GET("/dies/{id}", handlers.HandleDieGet(app)).
			BindFunc(handlers.RequireRole(services.AccessDies))
		api.PUT("/dies/{id}", handlers.HandleDieUpdate(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.POST("/dies/{id}/image", handlers.HandleDieImageUpload(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))
		api.DELETE("/dies/{id}", handlers.HandleDieDelete(app)).
			BindFunc(handlers.RequireRole(services.AccessDiesWrite))

		// ── Papers ───────────────────────────────────────────────
		api.GET("/papers", handlers.HandlePaperList(app)).
			BindFunc(handlers.RequireRole(services.AccessPapers))
		api.POST("/papers", handlers.HandlePaperSave(app)).
			BindFunc(handlers.RequireRole(services.AccessPapersWrite))
		api.PUT("/papers/{id}", handlers.HandlePaperSave(app)).
			BindFunc(handlers.RequireRole(services.AccessPapersWrite))
		api.DELETE("/papers/{id}", handlers.HandlePaperDelete(app)).
			BindFunc(handlers.RequireRole(services.AccessPapersWrite))

		// ── Overheads & standard rates ───────────────────────────
		api.GET("/overheads", handlers.HandleOverheadList(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimates))
		api.POST("/overheads", handlers.HandleOverheadSave(app)).
			BindFunc(handlers.RequireRole(services.AccessOverheads))
		api.PUT("/overheads/{id}", handlers.HandleOverheadSave(app)).
			BindFunc(handlers.RequireRole(services.AccessOverheads))
		api.DELETE("/overheads/{id}", handlers.HandleSettingDelete(app, "overheads")).
			BindFunc(handlers.RequireRole(services.AccessOverheads))
		api.GET("/rates", handlers.HandleRateList(app)).
			BindFunc(handlers.RequireRole(services.AccessRates))
		api.POST("/rates", handlers.HandleRateSave(app)).
			BindFunc(handlers.RequireRole(services.AccessRates))
		api.PUT("/rates/{id}", handlers.HandleRateSave(app)).
			BindFunc(handlers.RequireRole(services.AccessRates))
		api.DELETE("/rates/{id}", handlers.HandleSettingDelete(app, "standard_rates")).
			BindFunc(handlers.RequireRole(services.AccessRates))

		// ── Loyalty tiers ────────────────────────────────────────
		api.GET("/loyalty-tiers", handlers.HandleTierList(app)).
			BindFunc(handlers.RequireRole(services.AccessLoyalty))
		api.POST("/loyalty-tiers", handlers.HandleTierSave(app)).
			BindFunc(handlers.RequireRole(services.AccessLoyaltyWrite))
		api.POST("/loyalty-tiers/sync", handlers.HandleLoyaltySync(app)).
			BindFunc(handlers.RequireRole(services.AccessLoyaltyWrite))
		api.PUT("/loyalty-tiers/{id}", handlers.HandleTierSave(app)).
			BindFunc(handlers.RequireRole(services.AccessLoyaltyWrite))
		api.DELETE("/loyalty-tiers/{id}", handlers.HandleTierDelete(app)).
			BindFunc(handlers.RequireRole(services.AccessLoyaltyWrite))

		// ── Users ────────────────────────────────────────────────
		api.GET("/users", handlers.HandleUserList(app)).
			BindFunc(handlers.RequireRole(services.AccessUsers))
		api.POST("/users", handlers.HandleUserSave(app)).
			BindFunc(handlers.RequireRole(services.AccessUsers))
		api.PUT("/users/{id}", handlers.HandleUserSave(app)).
			BindFunc(handlers.RequireRole(services.AccessUsers))

		// ── Estimates ────────────────────────────────────────────
		api.GET("/estimates", handlers.HandleEstimateList(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimates))
		api.POST("/estimates", handlers.HandleEstimateCreate(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))
		api.POST("/estimates/calculate", handlers.HandleEstimateCalculate(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessEstimates))
		api.GET("/estimates/{id}", handlers.HandleEstimateGet(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimates))
		api.PATCH("/estimates/{id}", handlers.HandleEstimateUpdate(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))
		api.POST("/estimates/{id}/status", handlers.HandleEstimateStatus(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))
		api.POST("/estimates/{id}/cancel", handlers.HandleEstimateCancel(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))
		api.POST("/estimates/{id}/clone", handlers.HandleEstimateClone(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))
		api.POST("/estimates/{id}/move-to-order", handlers.HandleEstimateMoveToOrder(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))
		api.DELETE("/estimates/{id}", handlers.HandleEstimateDelete(app)).
			BindFunc(handlers.RequireRole(services.AccessEstimatesEdit))

		// ── Orders & job tickets ─────────────────────────────────
		api.GET("/orders", handlers.HandleOrderList(app)).
			BindFunc(handlers.RequireRole(services.AccessOrders))
		api.GET("/orders/{id}", handlers.HandleOrderGet(app)).
			BindFunc(handlers.RequireRole(services.AccessOrders))
		api.POST("/orders/{id}/stage", handlers.HandleOrderStage(app)).
			BindFunc(handlers.RequireRole(services.AccessOrderStage))
		api.POST("/orders/{id}/cancel", handlers.HandleOrderCancel(app)).
			BindFunc(handlers.RequireRole(services.AccessInvoicesWrite))
		api.GET("/orders/{id}/job-ticket", handlers.HandleJobTicketHTML(app)).
			BindFunc(handlers.RequireRole(services.AccessJobTickets))
		api.GET("/orders/{id}/job-ticket/pdf", handlers.HandleJobTicketPDF(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessJobTickets))

		// ── Invoices ─────────────────────────────────────────────
		api.GET("/invoices", handlers.HandleInvoiceList(app)).
			BindFunc(handlers.RequireRole(services.AccessInvoices))
		api.POST("/invoices", handlers.HandleInvoiceCreate(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessInvoicesWrite))
		api.GET("/invoices/{id}", handlers.HandleInvoiceGet(app)).
			BindFunc(handlers.RequireRole(services.AccessInvoices))
		api.GET("/invoices/{id}/pdf", handlers.HandleInvoicePDF(app, cfg)).
			BindFunc(handlers.RequireRole(services.AccessInvoices))
		api.POST("/invoices/{id}/share", handlers.HandleInvoiceShare(app)).
			BindFunc(handlers.RequireRole(services.AccessInvoicesWrite))
		api.POST("/invoices/{id}/status", handlers.HandleInvoiceStatus(app)).
			BindFunc(handlers.RequireRole(services.AccessInvoicesWrite))
		api.DELETE("/invoices/{id}", handlers.HandleInvoiceVoid(app)).
			BindFunc(handlers.RequireRole(services.AccessInvoicesWrite))

		// ── Exports ──────────────────────────────────────────────
		api.GET("/exports/orders.xlsx", handlers.HandleOrdersExportExcel(app)).
			BindFunc(handlers.RequireRole(services.AccessExports))
		api.GET("/exports/estimates.xlsx", handlers.HandleEstimatesExportExcel(app)).
			BindFunc(handlers.RequireRole(services.AccessExports))

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.JSON(http.StatusOK, map[string]string{"name": cfg.Company.Name, "api": "/api/shop"})
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
