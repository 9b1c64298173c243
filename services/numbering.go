package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// GetFiscalYear returns the Indian fiscal year string for a given date.
// Indian fiscal year runs April to March.
// Jan 2026 → "25-26", May 2026 → "26-27"
func GetFiscalYear(t time.Time) string {
	startYear := t.Year()
	if t.Month() < time.April {
		startYear--
	}
	return fmt.Sprintf("%02d-%02d", startYear%100, (startYear+1)%100)
}

// FormatDocumentNumber builds "{prefix}-{fy}-{seq}" with seq zero-padded to width.
func FormatDocumentNumber(prefix, fiscalYear string, seq, width int) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, fiscalYear, width, seq)
}

// NextDocumentNumber returns the next number for field in collection within the
// fiscal year of now. The sequence continues from the highest existing suffix,
// so deleted documents never cause a number to be reused.
func NextDocumentNumber(app core.App, collection, field, prefix string, width int, now time.Time) (string, error) {
	fy := GetFiscalYear(now)
	stem := fmt.Sprintf("%s-%s-", prefix, fy)

	existing, err := app.FindRecordsByFilter(
		collection,
		field+" ~ {:prefix}",
		"-"+field,
		0,
		0,
		map[string]any{"prefix": stem + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("list %s numbers: %w", collection, err)
	}

	highest := 0
	for _, rec := range existing {
		n, ok := parseSequence(rec.GetString(field), stem)
		if ok && n > highest {
			highest = n
		}
	}

	return FormatDocumentNumber(prefix, fy, highest+1, width), nil
}

func parseSequence(number, stem string) (int, bool) {
	if !strings.HasPrefix(number, stem) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, stem))
	if err != nil {
		return 0, false
	}
	return n, true
}
