package services

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/pocketbase/pocketbase/core"
)

const (
	EstimatePending   = "Pending"
	EstimateApproved  = "Approved"
	EstimateRejected  = "Rejected"
	EstimateCancelled = "Cancelled"
	EstimateMoved     = "Moved to Orders"
)

var EstimateStatuses = []string{EstimatePending, EstimateApproved, EstimateRejected, EstimateCancelled, EstimateMoved}

var (
	ErrEstimateLocked = errors.New("estimate already moved to orders or cancelled")
	ErrClientMismatch = errors.New("record belongs to a different client")
)

// PaperFromRecord converts a papers record.
func PaperFromRecord(rec *core.Record) Paper {
	return Paper{
		ID:            rec.Id,
		Name:          rec.GetString("paper_name"),
		Company:       rec.GetString("company"),
		GSM:           rec.GetFloat("gsm"),
		PricePerSheet: rec.GetFloat("price_per_sheet"),
		Length:        rec.GetFloat("length"),
		Breadth:       rec.GetFloat("breadth"),
		FreightPerKg:  rec.GetFloat("freight_per_kg"),
	}
}

// LoadRateTable reads every standard_rates record.
func LoadRateTable(app core.App) (*RateTable, error) {
	records, err := app.FindAllRecords("standard_rates")
	if err != nil {
		return nil, fmt.Errorf("load standard rates: %w", err)
	}
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]any{
			"group":      r.GetString("group"),
			"type":       r.GetString("type"),
			"final_rate": r.GetFloat("final_rate"),
		})
	}
	return RateTableFromRows(rows), nil
}

// LoadOverheads reads the overheads collection into pipeline percentages.
func LoadOverheads(app core.App) (Overheads, error) {
	records, err := app.FindAllRecords("overheads")
	if err != nil {
		return Overheads{}, fmt.Errorf("load overheads: %w", err)
	}
	entries := make([]OverheadEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, OverheadEntry{Name: r.GetString("name"), Value: r.GetFloat("value")})
	}
	return OverheadsFromEntries(entries), nil
}

// CalculateEstimate runs the full costing for state against the current rates,
// overheads, paper and the client's loyalty discount.
func CalculateEstimate(app core.App, state EstimateState, gstPercent float64) (CostBreakdown, error) {
	rates, err := LoadRateTable(app)
	if err != nil {
		return CostBreakdown{}, err
	}
	overheads, err := LoadOverheads(app)
	if err != nil {
		return CostBreakdown{}, err
	}

	var paper *Paper
	if id := state.OrderAndPaper.PaperID; id != "" && !state.OrderAndPaper.PaperProvided {
		rec, err := app.FindRecordById("papers", id)
		if err != nil {
			return CostBreakdown{}, fmt.Errorf("paper %s: %w", id, err)
		}
		p := PaperFromRecord(rec)
		paper = &p
	}

	var discount float64
	if id := state.OrderAndPaper.ClientID; id != "" {
		client, err := app.FindRecordById("clients", id)
		if err != nil {
			return CostBreakdown{}, fmt.Errorf("client %s: %w", id, err)
		}
		discount, _, err = ClientDiscountPercent(app, client)
		if err != nil {
			return CostBreakdown{}, err
		}
	}

	components := CalculateComponents(CostInputs{State: state, Paper: paper, Rates: rates})
	return RunPipeline(PipelineInput{
		Components:             components,
		Quantity:               state.OrderAndPaper.Quantity,
		Overheads:              overheads,
		MarkupType:             state.MarkupType,
		LoyaltyDiscountPercent: discount,
		GSTPercent:             gstPercent,
	}), nil
}

// StateFromRecord decodes the state JSON of an estimates or orders record.
func StateFromRecord(rec *core.Record) (EstimateState, error) {
	var s EstimateState
	if err := rec.UnmarshalJSONField("state", &s); err != nil {
		return s, fmt.Errorf("decode state of %s: %w", rec.Id, err)
	}
	return s, nil
}

// BreakdownFromRecord decodes the calculations JSON of an estimates or orders record.
func BreakdownFromRecord(rec *core.Record) (CostBreakdown, error) {
	var b CostBreakdown
	if err := rec.UnmarshalJSONField("calculations", &b); err != nil {
		return b, fmt.Errorf("decode calculations of %s: %w", rec.Id, err)
	}
	return b, nil
}

// ApplyStateToEstimate copies state and its breakdown onto an estimates or
// orders record, including the denormalised columns used for filtering.
func ApplyStateToEstimate(rec *core.Record, state EstimateState, b CostBreakdown) {
	op := state.OrderAndPaper
	rec.Set("client", op.ClientID)
	rec.Set("project_name", op.ProjectName)
	rec.Set("job_type", op.JobType)
	rec.Set("quantity", op.Quantity)
	rec.Set("die_code", op.DieCode)
	rec.Set("state", state)
	rec.Set("calculations", b)
	rec.Set("total_amount", b.TotalWithGST)
}

// NextVersionID returns the next numeric version label for a client's estimates.
func NextVersionID(app core.App, clientID string) (string, error) {
	records, err := app.FindRecordsByFilter(
		"estimates",
		"client = {:clientId}",
		"", 0, 0,
		map[string]any{"clientId": clientID},
	)
	if err != nil {
		return "", fmt.Errorf("list estimates for client %s: %w", clientID, err)
	}
	highest := 0
	for _, r := range records {
		if n := FormInt(r.GetString("version_id")); n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%d", highest+1), nil
}

// VersionSummary groups a client's estimates by version.
type VersionSummary struct {
	VersionID     string  `json:"versionId"`
	EstimateCount int     `json:"estimateCount"`
	PendingCount  int     `json:"pendingCount"`
	MovedCount    int     `json:"movedCount"`
	TotalAmount   float64 `json:"totalAmount"`
}

// SummarizeVersions groups estimate records by version_id, ordered by version.
func SummarizeVersions(records []*core.Record) []VersionSummary {
	index := make(map[string]int)
	var out []VersionSummary
	for _, r := range records {
		v := r.GetString("version_id")
		i, ok := index[v]
		if !ok {
			i = len(out)
			index[v] = i
			out = append(out, VersionSummary{VersionID: v})
		}
		out[i].EstimateCount++
		switch {
		case r.GetBool("moved_to_orders"):
			out[i].MovedCount++
		case r.GetString("status") == EstimatePending && !r.GetBool("is_canceled"):
			out[i].PendingCount++
		}
		if !r.GetBool("is_canceled") {
			out[i].TotalAmount = Round2(out[i].TotalAmount + r.GetFloat("total_amount"))
		}
	}
	sortVersions(out)
	return out
}

func sortVersions(v []VersionSummary) {
	slices.SortStableFunc(v, func(a, b VersionSummary) int {
		if c := cmp.Compare(FormInt(a.VersionID), FormInt(b.VersionID)); c != 0 {
			return c
		}
		return cmp.Compare(a.VersionID, b.VersionID)
	})
}

// ApplyPaperDerived recomputes the stored paper columns that follow from gsm,
// size, price and freight.
func ApplyPaperDerived(rec *core.Record) {
	p := PaperFromRecord(rec)
	rec.Set("area", Round2(p.Area()))
	rec.Set("rate_per_gram", p.RatePerGram())
	rec.Set("final_rate", Round2(p.FinalRate()))
}
