package services

import (
	"math"
	"strings"
)

// InvoiceLine is one order billed on an invoice.
type InvoiceLine struct {
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	Description string  `json:"description"`
	HSNCode     string  `json:"hsnCode"`
	Qty         float64 `json:"qty"`
	Rate        float64 `json:"rate"`     // per card, before discount
	Gross       float64 `json:"gross"`    // Rate * Qty
	Discount    float64 `json:"discount"` // loyalty discount on Gross
	Taxable     float64 `json:"taxable"`  // Gross - Discount
	GSTPercent  float64 `json:"gstPercent"`
	GSTAmount   float64 `json:"gstAmount"`
	Total       float64 `json:"total"`
}

// InvoiceTotals aggregates the lines of one invoice.
type InvoiceTotals struct {
	Gross       float64 `json:"gross"`
	Discount    float64 `json:"discount"`
	Taxable     float64 `json:"taxable"`
	IntraState  bool    `json:"intraState"`
	CGSTAmount  float64 `json:"cgstAmount"`
	SGSTAmount  float64 `json:"sgstAmount"`
	IGSTAmount  float64 `json:"igstAmount"`
	GSTAmount   float64 `json:"gstAmount"`
	RoundOff    float64 `json:"roundOff"`
	GrandTotal  float64 `json:"grandTotal"`
	AmountWords string  `json:"amountInWords"`
}

// CalcInvoiceLine prices one order line.
func CalcInvoiceLine(rate, qty, discountPercent, gstPercent float64) InvoiceLine {
	gross := rate * qty
	discount := gross * clampPercent(discountPercent) / 100
	taxable := gross - discount
	gst := taxable * clampPercent(gstPercent) / 100
	return InvoiceLine{
		Qty:        qty,
		Rate:       rate,
		Gross:      gross,
		Discount:   discount,
		Taxable:    taxable,
		GSTPercent: gstPercent,
		GSTAmount:  gst,
		Total:      taxable + gst,
	}
}

// LineFromBreakdown turns a stored cost breakdown into an invoice line.
func LineFromBreakdown(b CostBreakdown) InvoiceLine {
	return CalcInvoiceLine(b.TotalCostPerCard, float64(b.Quantity), b.LoyaltyDiscountPercent, b.GSTPercent)
}

// CalcInvoiceTotals sums the lines, splits GST into CGST/SGST when the buyer
// is in the seller's state (IGST otherwise) and rounds to the nearest rupee.
func CalcInvoiceTotals(lines []InvoiceLine, sellerState, buyerState string) InvoiceTotals {
	var t InvoiceTotals
	for _, l := range lines {
		t.Gross += l.Gross
		t.Discount += l.Discount
		t.Taxable += l.Taxable
		t.GSTAmount += l.GSTAmount
	}

	t.IntraState = sameState(sellerState, buyerState)
	if t.IntraState {
		t.CGSTAmount = t.GSTAmount / 2
		t.SGSTAmount = t.GSTAmount / 2
	} else {
		t.IGSTAmount = t.GSTAmount
	}

	subtotal := t.Taxable + t.GSTAmount
	t.RoundOff = calcRoundOff(subtotal)
	t.GrandTotal = subtotal + t.RoundOff
	t.AmountWords = AmountToWords(t.GrandTotal)
	return t
}

func sameState(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		// unknown buyer state: bill as local supply
		return true
	}
	return strings.EqualFold(a, b)
}

// calcRoundOff is the signed adjustment to the nearest rupee.
func calcRoundOff(amount float64) float64 {
	return math.Round(amount) - amount
}

// AmountToWords converts a numeric amount to Indian English words.
// Example: 913183.00 → "Nine Lakhs Thirteen Thousand One Hundred and Eighty Three Rupees Only/-"
func AmountToWords(amount float64) string {
	if amount < 0 {
		return "Negative " + AmountToWords(-amount)
	}

	rupees := int64(math.Round(amount))
	if rupees == 0 {
		return "Zero Rupees Only/-"
	}
	return indianWords(rupees) + " Rupees Only/-"
}

var indianScales = []struct {
	size int64
	name string
}{
	{10000000, "Crores"},
	{100000, "Lakhs"},
	{1000, "Thousand"},
}

func indianWords(n int64) string {
	var parts []string

	for _, s := range indianScales {
		if n >= s.size {
			head := n / s.size
			if head >= 100 {
				// beyond 99 crores the head itself needs full words
				parts = append(parts, indianWords(head)+" "+s.name)
			} else {
				parts = append(parts, under100(head)+" "+s.name)
			}
			n %= s.size
		}
	}

	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}

	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and "+under100(n))
		} else {
			parts = append(parts, under100(n))
		}
	}

	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	result := tensWords[n/10]
	if n%10 != 0 {
		result += " " + onesWords[n%10]
	}
	return result
}

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}
