// Package services holds the print-shop business logic: the estimate reducer,
// the costing pipeline, loyalty tiers, search, numbering and document generation.
package services

import (
	"maps"
	"math"
	"slices"
	"strings"
)

// Overhead names that drive the pipeline.
const (
	OverheadWastage  = "WASTAGE"
	OverheadOverhead = "OVERHEADS"
	MarkupPrefix     = "MARKUP"
	DefaultMarkup    = "MARKUP STANDARD"
)

// OverheadEntry is one overheads record.
type OverheadEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Overheads are the percentages applied on top of the base cost.
type Overheads struct {
	WastagePercent  float64            `json:"wastagePercent"`
	OverheadPercent float64            `json:"overheadPercent"`
	Markups         map[string]float64 `json:"markups"`
}

// OverheadsFromEntries picks the wastage, overhead and markup rows out of the
// overheads collection. Names are matched case-insensitively.
func OverheadsFromEntries(entries []OverheadEntry) Overheads {
	o := Overheads{Markups: make(map[string]float64)}
	for _, e := range entries {
		name := normalizeKey(e.Name)
		switch {
		case name == OverheadWastage:
			o.WastagePercent = e.Value
		case name == OverheadOverhead:
			o.OverheadPercent = e.Value
		case strings.HasPrefix(name, MarkupPrefix):
			o.Markups[name] = e.Value
		}
	}
	return o
}

// MarkupPercent resolves a markup by name, falling back to the standard markup.
func (o Overheads) MarkupPercent(markupType string) float64 {
	if v, ok := o.Markups[normalizeKey(markupType)]; ok {
		return v
	}
	return o.Markups[DefaultMarkup]
}

// MarkupNames lists the configured markup names alphabetically.
func (o Overheads) MarkupNames() []string {
	return slices.Sorted(maps.Keys(o.Markups))
}

type PipelineInput struct {
	Components             ComponentCosts
	Quantity               int
	Overheads              Overheads
	MarkupType             string
	LoyaltyDiscountPercent float64
	GSTPercent             float64
}

// CostBreakdown is stored on estimates and orders as the calculations JSON.
type CostBreakdown struct {
	Components ComponentCosts `json:"components"`

	BaseCost         float64 `json:"baseCost"`
	WastagePercent   float64 `json:"wastagePercentage"`
	WastageAmount    float64 `json:"wastageAmount"`
	OverheadPercent  float64 `json:"overheadPercentage"`
	OverheadAmount   float64 `json:"overheadAmount"`
	Subtotal         float64 `json:"subtotalPerCard"`
	MarkupType       string  `json:"markupType"`
	MarkupPercent    float64 `json:"markupPercentage"`
	MarkupAmount     float64 `json:"markupAmount"`
	TotalCostPerCard float64 `json:"totalCostPerCard"`

	Quantity  int     `json:"quantity"`
	TotalCost float64 `json:"totalCost"`

	LoyaltyDiscountPercent float64 `json:"loyaltyDiscount"`
	LoyaltyDiscountAmount  float64 `json:"loyaltyDiscountAmount"`
	DiscountedTotal        float64 `json:"discountedTotalCost"`

	GSTPercent   float64 `json:"gstRate"`
	GSTAmount    float64 `json:"gstAmount"`
	TotalWithGST float64 `json:"totalWithGST"`
}

// RunPipeline applies wastage, overhead and markup to the per-card base cost,
// multiplies by quantity, then takes off the loyalty discount and adds GST.
// Each percentage compounds on the running amount.
func RunPipeline(in PipelineInput) CostBreakdown {
	base := in.Components.Base()
	wastagePct := nonNegative(in.Overheads.WastagePercent)
	overheadPct := nonNegative(in.Overheads.OverheadPercent)
	markupPct := nonNegative(in.Overheads.MarkupPercent(in.MarkupType))
	discountPct := clampPercent(in.LoyaltyDiscountPercent)
	gstPct := clampPercent(in.GSTPercent)

	wastage := base * wastagePct / 100
	overhead := (base + wastage) * overheadPct / 100
	subtotal := base + wastage + overhead
	markup := subtotal * markupPct / 100
	perCard := subtotal + markup

	qty := max(in.Quantity, 0)
	total := perCard * float64(qty)
	discount := total * discountPct / 100
	discounted := total - discount
	gst := discounted * gstPct / 100

	markupType := in.MarkupType
	if markupType == "" {
		markupType = DefaultMarkup
	}

	return CostBreakdown{
		Components:             in.Components,
		BaseCost:               Round2(base),
		WastagePercent:         wastagePct,
		WastageAmount:          Round2(wastage),
		OverheadPercent:        overheadPct,
		OverheadAmount:         Round2(overhead),
		Subtotal:               Round2(subtotal),
		MarkupType:             normalizeKey(markupType),
		MarkupPercent:          markupPct,
		MarkupAmount:           Round2(markup),
		TotalCostPerCard:       Round2(perCard),
		Quantity:               qty,
		TotalCost:              Round2(total),
		LoyaltyDiscountPercent: discountPct,
		LoyaltyDiscountAmount:  Round2(discount),
		DiscountedTotal:        Round2(discounted),
		GSTPercent:             gstPct,
		GSTAmount:              Round2(gst),
		TotalWithGST:           Round2(discounted + gst),
	}
}

// ApplyLoyaltyDiscount reruns the discount and GST tail of an existing
// breakdown with a new discount percentage.
func ApplyLoyaltyDiscount(b CostBreakdown, discountPercent float64) CostBreakdown {
	pct := clampPercent(discountPercent)
	discount := b.TotalCost * pct / 100
	discounted := b.TotalCost - discount
	gst := discounted * b.GSTPercent / 100

	b.LoyaltyDiscountPercent = pct
	b.LoyaltyDiscountAmount = Round2(discount)
	b.DiscountedTotal = Round2(discounted)
	b.GSTAmount = Round2(gst)
	b.TotalWithGST = Round2(discounted + gst)
	return b
}

// Round2 rounds a money amount to paise.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// clampPercent bounds discount and tax rates to 0..100.
func clampPercent(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
