package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatINR renders an amount in rupees with Indian digit grouping
// (₹15,59,250.00). Amounts are rounded to paise first, so a value that
// rounds to zero never carries a minus sign.
func FormatINR(amount float64) string {
	sign := ""
	switch amount = Round2(amount); {
	case amount < 0:
		sign = "-"
		amount = -amount
	case amount == 0:
		amount = 0 // drop a negative zero
	}
	rupees, paise, _ := strings.Cut(strconv.FormatFloat(amount, 'f', 2, 64), ".")
	return sign + "₹" + groupIndian(rupees) + "." + paise
}

// FormatRoundOff shows the invoice round-off line with an explicit sign.
func FormatRoundOff(v float64) string {
	if v = Round2(v); v > 0 {
		return "+" + FormatINR(v)
	}
	return FormatINR(v)
}

// FormatPercent drops trailing zeros: 18%, 2.5%, 12.75%.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(Round2(p), 'f', -1, 64) + "%"
}

// formatQty prints whole quantities without decimals and anything else to
// two places.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// groupIndian keeps the last three digits together and pairs the rest.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}
