package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"printshop/config"
	"printshop/services"
)

// estimateRequest carries either a full state, a list of wizard actions to
// replay on top of it, or both.
type estimateRequest struct {
	State     *services.EstimateState `json:"state"`
	Actions   []services.Action       `json:"actions"`
	VersionID string                  `json:"versionId"`
}

// buildState replays the request's actions on top of base (or the posted
// state). b2b users always estimate for their own client.
func buildState(e *core.RequestEvent, base services.EstimateState, req estimateRequest) (services.EstimateState, error) {
	state := base
	if req.State != nil {
		state = *req.State
	}
	state, err := services.ReduceAll(state, req.Actions)
	if err != nil {
		return state, err
	}
	if scope := clientScope(e); scope != "" {
		state.OrderAndPaper.ClientID = scope
	}
	return state, nil
}

// HandleEstimateList lists estimates filtered by ?client=, ?status=, ?version=
// and ?q= on project name. Cancelled estimates are hidden unless ?all=true.
func HandleEstimateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()

		filters := []string{"1 = 1"}
		params := dbx.Params{}
		clientID := q.Get("client")
		if scope := clientScope(e); scope != "" {
			clientID = scope
		}
		if clientID != "" {
			filters = append(filters, "client = {:client}")
			params["client"] = clientID
		}
		if status := q.Get("status"); status != "" {
			filters = append(filters, "status = {:status}")
			params["status"] = status
		}
		if version := q.Get("version"); version != "" {
			filters = append(filters, "version_id = {:version}")
			params["version"] = version
		}
		if text := strings.TrimSpace(q.Get("q")); text != "" {
			filters = append(filters, "project_name ~ {:q}")
			params["q"] = text
		}
		if q.Get("all") != "true" {
			filters = append(filters, "is_canceled = false")
		}

		records, err := app.FindRecordsByFilter("estimates", strings.Join(filters, " && "), "-created", 0, 0, params)
		if err != nil {
			log.Printf("estimates: list failed: %v", err)
			return jsonError(e, http.StatusInternalServerError, "Failed to load estimates")
		}
		return e.JSON(http.StatusOK, recordsJSON(records))
	}
}

// HandleEstimateGet returns one estimate.
func HandleEstimateGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "estimates")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}
		return e.JSON(http.StatusOK, rec.PublicExport())
	}
}

// HandleEstimateCalculate previews the costing of a state without saving it.
func HandleEstimateCalculate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req estimateRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		state, err := buildState(e, services.EstimateState{}, req)
		if err != nil {
			return serviceError(e, "estimate_calculate", err)
		}
		breakdown, err := services.CalculateEstimate(app, state, cfg.Tax.DefaultGSTPercent)
		if err != nil {
			return serviceError(e, "estimate_calculate", err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"state":        state,
			"calculations": breakdown,
		})
	}
}

// HandleEstimateCreate validates, prices and saves a new pending estimate.
// Without a versionId the estimate opens a new version for the client.
func HandleEstimateCreate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req estimateRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		state, err := buildState(e, services.EstimateState{}, req)
		if err != nil {
			return serviceError(e, "estimate_create", err)
		}

		rec, err := saveNewEstimate(app, e, cfg, state, req.VersionID)
		if err != nil {
			return validationError(e, "estimate_create", err)
		}
		return e.JSON(http.StatusCreated, rec.PublicExport())
	}
}

func saveNewEstimate(app core.App, e *core.RequestEvent, cfg *config.Config, state services.EstimateState, versionID string) (*core.Record, error) {
	if err := services.ValidateEstimateState(state); err != nil {
		return nil, err
	}
	client, err := app.FindRecordById("clients", state.OrderAndPaper.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", state.OrderAndPaper.ClientID, err)
	}

	breakdown, err := services.CalculateEstimate(app, state, cfg.Tax.DefaultGSTPercent)
	if err != nil {
		return nil, err
	}
	if versionID == "" {
		if versionID, err = services.NextVersionID(app, client.Id); err != nil {
			return nil, err
		}
	}

	col, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return nil, fmt.Errorf("find estimates collection: %w", err)
	}
	rec := core.NewRecord(col)
	services.ApplyStateToEstimate(rec, state, breakdown)
	rec.Set("version_id", versionID)
	rec.Set("status", services.EstimatePending)
	rec.Set("moved_to_orders", false)
	rec.Set("is_canceled", false)
	user, ok := currentUser(e)
	if ok {
		rec.Set("created_by", user.ID)
	}
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save estimate: %w", err)
	}

	// estimates raised by clients need staff attention
	if ok && user.IsB2B() {
		for _, role := range []services.Role{services.RoleAdmin, services.RoleStaff} {
			err := services.Notify(app, services.Notification{
				Role:     role,
				Type:     services.NotifyEstimateCreated,
				Title:    "New estimate from " + client.GetString("name"),
				Message:  fmt.Sprintf("%s: %s x %d", state.OrderAndPaper.ProjectName, state.OrderAndPaper.JobType, state.OrderAndPaper.Quantity),
				EntityID: rec.Id,
			})
			if err != nil {
				log.Printf("estimates: notify %s: %v", role, err)
			}
		}
	}
	return rec, nil
}

// HandleEstimateUpdate applies posted actions (or a replacement state) to an
// open estimate and re-prices it.
func HandleEstimateUpdate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, ok := findVisible(app, e, "estimates")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}
		if estimateLocked(rec) {
			return serviceError(e, "estimate_update", services.ErrEstimateLocked)
		}

		var req estimateRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		current, err := services.StateFromRecord(rec)
		if err != nil {
			return serviceError(e, "estimate_update", err)
		}
		state, err := buildState(e, current, req)
		if err != nil {
			return serviceError(e, "estimate_update", err)
		}
		if err := services.ValidateEstimateState(state); err != nil {
			return validationError(e, "estimate_update", err)
		}

		breakdown, err := services.CalculateEstimate(app, state, cfg.Tax.DefaultGSTPercent)
		if err != nil {
			return serviceError(e, "estimate_update", err)
		}
		services.ApplyStateToEstimate(rec, state, breakdown)
		if req.VersionID != "" {
			rec.Set("version_id", req.VersionID)
		}
		// edits send an approved estimate back for review
		if rec.GetString("status") != services.EstimatePending {
			rec.Set("status", services.EstimatePending)
		}
		if err := app.Save(rec); err != nil {
			return serviceError(e, "estimate_update", err)
		}
		return e.JSON(http.StatusOK, rec.PublicExport())
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleEstimateStatus approves, rejects or reopens an open estimate.
// Cancelling and moving to orders have their own routes.
func HandleEstimateStatus(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if clientScope(e) != "" {
			return jsonError(e, http.StatusForbidden, "You do not have access to this page")
		}
		rec, ok := findVisible(app, e, "estimates")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}
		if estimateLocked(rec) {
			return serviceError(e, "estimate_status", services.ErrEstimateLocked)
		}

		var req statusRequest
		if err := e.BindBody(&req); err != nil {
			return jsonError(e, http.StatusBadRequest, "Invalid request body")
		}
		allowed := []string{services.EstimatePending, services.EstimateApproved, services.EstimateRejected}
		if !slices.Contains(allowed, req.Status) {
			return jsonError(e, http.StatusBadRequest, "Status must be Pending, Approved or Rejected")
		}

		rec.Set("status", req.Status)
		if err := app.Save(rec); err != nil {
			return serviceError(e, "estimate_status", err)
		}
		return e.JSON(http.StatusOK, rec.PublicExport())
	}
}

// HandleEstimateCancel marks an open estimate cancelled. It stays listed
// under ?all=true.
func HandleEstimateCancel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if clientScope(e) != "" {
			return jsonError(e, http.StatusForbidden, "You do not have access to this page")
		}
		rec, ok := findVisible(app, e, "estimates")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}
		if estimateLocked(rec) {
			return serviceError(e, "estimate_cancel", services.ErrEstimateLocked)
		}
		rec.Set("is_canceled", true)
		rec.Set("status", services.EstimateCancelled)
		if err := app.Save(rec); err != nil {
			return serviceError(e, "estimate_cancel", err)
		}
		return e.JSON(http.StatusOK, rec.PublicExport())
	}
}

// HandleEstimateClone copies an estimate's state into a new pending estimate,
// priced at today's rates. The copy joins ?version= or the source's version.
func HandleEstimateClone(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		src, ok := findVisible(app, e, "estimates")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}
		state, err := services.StateFromRecord(src)
		if err != nil {
			return serviceError(e, "estimate_clone", err)
		}

		version := e.Request.URL.Query().Get("version")
		if version == "" {
			version = src.GetString("version_id")
		}
		rec, err := saveNewEstimate(app, e, cfg, state, version)
		if err != nil {
			return validationError(e, "estimate_clone", err)
		}
		return e.JSON(http.StatusCreated, rec.PublicExport())
	}
}

// HandleEstimateMoveToOrder converts an estimate into a numbered order.
func HandleEstimateMoveToOrder(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if clientScope(e) != "" {
			return jsonError(e, http.StatusForbidden, "You do not have access to this page")
		}
		if _, ok := findVisible(app, e, "estimates"); !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}

		order, err := services.MoveEstimateToOrder(app, e.Request.PathValue("id"), cfg.Numbers.OrderPrefix, time.Now())
		if err != nil {
			return serviceError(e, "estimate_move", err)
		}
		return e.JSON(http.StatusCreated, order.PublicExport())
	}
}

// HandleEstimateDelete deletes an estimate that never became an order.
func HandleEstimateDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if clientScope(e) != "" {
			return jsonError(e, http.StatusForbidden, "You do not have access to this page")
		}
		rec, ok := findVisible(app, e, "estimates")
		if !ok {
			return jsonError(e, http.StatusNotFound, "Estimate not found")
		}
		if rec.GetBool("moved_to_orders") {
			return serviceError(e, "estimate_delete", services.ErrEstimateLocked)
		}
		if err := app.Delete(rec); err != nil {
			return serviceError(e, "estimate_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

func estimateLocked(rec *core.Record) bool {
	return rec.GetBool("moved_to_orders") || rec.GetBool("is_canceled")
}

// findVisible loads the {id} record of collection if the user may see it.
func findVisible(app core.App, e *core.RequestEvent, collection string) (*core.Record, bool) {
	rec, err := app.FindRecordById(collection, e.Request.PathValue("id"))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("%s: load %s: %v", collection, e.Request.PathValue("id"), err)
		}
		return nil, false
	}
	if !visibleToUser(e, rec) {
		return nil, false
	}
	return rec, true
}
