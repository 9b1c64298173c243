package services

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Rate groups as stored in the standard_rates collection.
const (
	RateLPPlate       = "LP PLATE"
	RateLPMR          = "LP MR"
	RateLPImpression  = "LP IMPRESSION"
	RateFSBlock       = "FS BLOCK"
	RateFSMR          = "FS MR"
	RateFoil          = "FOIL"
	RateFSImpression  = "FS IMPRESSION"
	RateEMBPlate      = "EMB PLATE"
	RateEMBMR         = "EMB MR"
	RateEMBImpression = "EMB IMPRESSION"
	RateDigital       = "DIGITAL"
	RateDCMR          = "DC MR"
	RateDCImpression  = "DC IMPRESSION"
	RatePasting       = "PASTING"

	// DefaultRateType is used when a section leaves its type blank.
	DefaultRateType = "DEFAULT"
)

// Paper mirrors a papers record.
type Paper struct {
	ID            string  `json:"id"`
	Name          string  `json:"paperName"`
	Company       string  `json:"company"`
	GSM           float64 `json:"gsm"`
	PricePerSheet float64 `json:"pricePerSheet"`
	Length        float64 `json:"length"`
	Breadth       float64 `json:"breadth"`
	FreightPerKg  float64 `json:"freightPerKg"`
}

// Area returns the sheet area in square centimetres.
func (p Paper) Area() float64 {
	return p.Length * p.Breadth
}

// SheetWeightKg converts gsm and sheet size (cm) into kilograms per sheet.
func (p Paper) SheetWeightKg() float64 {
	return p.GSM * (p.Area() / 10000) / 1000
}

// RatePerGram is the sheet price spread over its weight in grams.
func (p Paper) RatePerGram() float64 {
	grams := p.SheetWeightKg() * 1000
	if grams == 0 {
		return 0
	}
	return p.PricePerSheet / grams
}

// FinalRate is the landed cost of one sheet including freight.
func (p Paper) FinalRate() float64 {
	return p.PricePerSheet + p.SheetWeightKg()*p.FreightPerKg
}

type rateKey struct {
	group string
	typ   string
}

// RateTable resolves standard rates by group and type. Missing entries resolve to 0.
type RateTable struct {
	rates map[rateKey]float64
}

func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[rateKey]float64)}
}

// RateTableFromRows builds a table from loosely typed rows (record exports,
// JSON bodies, CSV) with keys group, type and final_rate.
func RateTableFromRows(rows []map[string]any) *RateTable {
	t := NewRateTable()
	for _, r := range rows {
		t.Set(cast.ToString(r["group"]), cast.ToString(r["type"]), cast.ToFloat64(r["final_rate"]))
	}
	return t
}

func (t *RateTable) Set(group, typ string, rate float64) {
	if typ == "" {
		typ = DefaultRateType
	}
	t.rates[rateKey{normalizeKey(group), normalizeKey(typ)}] = rate
}

// Rate returns the rate for (group, typ), falling back to the group's DEFAULT entry.
func (t *RateTable) Rate(group, typ string) float64 {
	if t == nil {
		return 0
	}
	if typ != "" {
		if r, ok := t.rates[rateKey{normalizeKey(group), normalizeKey(typ)}]; ok {
			return r
		}
	}
	return t.rates[rateKey{normalizeKey(group), DefaultRateType}]
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ComponentCosts are per-card costs of each production step.
type ComponentCosts struct {
	Paper      float64 `json:"paperCostPerCard"`
	LP         float64 `json:"lpCostPerCard"`
	FS         float64 `json:"fsCostPerCard"`
	EMB        float64 `json:"embCostPerCard"`
	Digital    float64 `json:"digiCostPerCard"`
	DieCutting float64 `json:"dieCuttingCostPerCard"`
	Pasting    float64 `json:"pastingCostPerCard"`
	Misc       float64 `json:"miscChargePerCard"`
}

// Base is the sum of all components.
func (c ComponentCosts) Base() float64 {
	return c.Paper + c.LP + c.FS + c.EMB + c.Digital + c.DieCutting + c.Pasting + c.Misc
}

// CostInputs are everything the component calculators read.
type CostInputs struct {
	State EstimateState
	Paper *Paper
	Rates *RateTable
}

// CalculateComponents derives per-card costs for every step in the estimate.
func CalculateComponents(in CostInputs) ComponentCosts {
	s := in.State
	qty := s.OrderAndPaper.Quantity
	frags := s.OrderAndPaper.Frags

	return ComponentCosts{
		Paper:      CalcPaperCostPerCard(in.Paper, s.OrderAndPaper.PaperProvided, frags),
		LP:         CalcLPCostPerCard(s.LPDetails, in.Rates, qty),
		FS:         CalcFSCostPerCard(s.FSDetails, in.Rates, qty),
		EMB:        CalcEMBCostPerCard(s.EMBDetails, in.Rates, qty),
		Digital:    CalcDigiCostPerCard(s.DigiDetails, in.Rates, frags),
		DieCutting: CalcDieCuttingCostPerCard(s.DieCutting, in.Rates, qty),
		Pasting:    CalcPastingCostPerCard(s.Pasting, in.Rates),
		Misc:       CalcMiscChargePerCard(s.Misc),
	}
}

// CalcPaperCostPerCard spreads one sheet over the pieces cut from it.
func CalcPaperCostPerCard(p *Paper, provided bool, frags int) float64 {
	if p == nil || provided {
		return 0
	}
	return p.FinalRate() / float64(max(frags, 1))
}

// SheetsRequired is the number of sheets needed for qty pieces.
func SheetsRequired(qty, frags int) int {
	if qty <= 0 {
		return 0
	}
	return int(math.Ceil(float64(qty) / float64(max(frags, 1))))
}

// spread divides a one-off cost across the run.
func spread(fixed float64, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	return fixed / float64(qty)
}

func CalcLPCostPerCard(lp LPDetails, rates *RateTable, qty int) float64 {
	if !lp.IsLPUsed || lp.NoOfColors <= 0 {
		return 0
	}
	var fixed float64
	for _, c := range lp.ColorDetails {
		fixed += c.PlateDimension.Area()*rates.Rate(RateLPPlate, c.PlateType) + rates.Rate(RateLPMR, c.MRType)
	}
	return spread(fixed, qty) + float64(lp.NoOfColors)*rates.Rate(RateLPImpression, DefaultRateType)
}

func CalcFSCostPerCard(fs FSDetails, rates *RateTable, qty int) float64 {
	if !fs.IsFSUsed || len(fs.FoilDetails) == 0 {
		return 0
	}
	var fixed, foil float64
	for _, f := range fs.FoilDetails {
		area := f.BlockDimension.Area()
		fixed += area*rates.Rate(RateFSBlock, f.BlockType) + rates.Rate(RateFSMR, f.MRType)
		// foil rates are quoted per 100 cm²
		foil += area * rates.Rate(RateFoil, f.FoilType) / 100
	}
	return spread(fixed, qty) + foil + float64(len(fs.FoilDetails))*rates.Rate(RateFSImpression, DefaultRateType)
}

func CalcEMBCostPerCard(emb EMBDetails, rates *RateTable, qty int) float64 {
	if !emb.IsEMBUsed {
		return 0
	}
	area := emb.PlateDimensions.Area()
	fixed := area*rates.Rate(RateEMBPlate, emb.PlateTypeMale) +
		area*rates.Rate(RateEMBPlate, emb.PlateTypeFemale) +
		rates.Rate(RateEMBMR, emb.EMBMR)
	return spread(fixed, qty) + rates.Rate(RateEMBImpression, DefaultRateType)
}

func CalcDigiCostPerCard(d DigiDetails, rates *RateTable, frags int) float64 {
	if !d.IsDigiUsed {
		return 0
	}
	return rates.Rate(RateDigital, d.DigiDie) / float64(max(frags, 1))
}

func CalcDieCuttingCostPerCard(dc DieCutting, rates *RateTable, qty int) float64 {
	if !dc.IsDieCuttingUsed {
		return 0
	}
	impression := rates.Rate(RateDCImpression, DefaultRateType)
	if dc.DifficultCutting {
		impression *= 2
	}
	return spread(rates.Rate(RateDCMR, dc.DCMR), qty) + impression
}

func CalcPastingCostPerCard(p Pasting, rates *RateTable) float64 {
	if !p.IsPastingUsed {
		return 0
	}
	return rates.Rate(RatePasting, p.PastingType)
}

func CalcMiscChargePerCard(m Misc) float64 {
	if !m.IsMiscUsed || m.MiscCharge < 0 {
		return 0
	}
	return m.MiscCharge
}

// FormFloat coerces an optional form value to a number; blanks and garbage become 0.
func FormFloat(v any) float64 {
	return cast.ToFloat64(v)
}

// FormInt is FormFloat for integers.
func FormInt(v any) int {
	return cast.ToInt(v)
}
