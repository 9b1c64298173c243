package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	mutedColor = &props.Color{Red: 100, Green: 100, Blue: 100}
	darkColor  = &props.Color{Red: 33, Green: 37, Blue: 41}
	whiteColor = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// GenerateInvoicePDF creates a GST tax invoice PDF using maroto/v2.
func GenerateInvoicePDF(doc *InvoiceDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addInvoiceHeader(m, doc)
	addInvoiceParties(m, doc)
	addInvoiceLines(m, doc)
	addInvoiceTotals(m, doc)
	addInvoiceAmountInWords(m, doc)
	addInvoiceBankDetails(m, doc)
	addInvoiceTerms(m, doc)
	addInvoiceSignature(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice PDF: %w", err)
	}

	return out.GetBytes(), nil
}

func addInvoiceHeader(m core.Maroto, doc *InvoiceDocument) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(
				text.New(doc.Seller.Name, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
			col.New(6).Add(
				text.New("TAX INVOICE", props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: darkColor,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(joinNonEmpty([]string{doc.Seller.Address, doc.Seller.Email, doc.Seller.Phone}, " | "), props.Text{
					Size:  8,
					Align: align.Left,
					Color: mutedColor,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Invoice #: %s", doc.InvoiceNumber), props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Right,
				}),
			),
		),
	)

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New(fmtField("GSTIN", doc.Seller.GSTIN), props.Text{Size: 8, Align: align.Left})),
			col.New(6).Add(text.New(fmtField("Date", doc.InvoiceDate), props.Text{Size: 8, Align: align.Right})),
		),
	)

	m.AddRows(row.New(3))
}

func addInvoiceParties(m core.Maroto, doc *InvoiceDocument) {
	sectionLabel := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: mutedColor,
	}
	valueStyle := props.Text{Size: 8, Align: align.Left}
	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 243, Blue: 239}}

	supply := "Inter-state supply (IGST)"
	if doc.Totals.IntraState {
		supply = "Intra-state supply (CGST + SGST)"
	}

	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New("BILL TO", sectionLabel)).WithStyle(headerCell),
			col.New(6).Add(text.New("PLACE OF SUPPLY", sectionLabel)).WithStyle(headerCell),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New(doc.Buyer.Name, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left})),
			col.New(6).Add(text.New(doc.Buyer.State, valueStyle)),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New(doc.Buyer.Address, valueStyle)),
			col.New(6).Add(text.New(supply, valueStyle)),
		),
	)
	if doc.Buyer.GSTIN != "" || doc.Buyer.Phone != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(6).Add(text.New(fmtField("GSTIN", doc.Buyer.GSTIN), valueStyle)),
				col.New(6).Add(text.New(fmtField("Phone", doc.Buyer.Phone), valueStyle)),
			),
		)
	}

	m.AddRows(row.New(3))
}

func addInvoiceLines(m core.Maroto, doc *InvoiceDocument) {
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: whiteColor,
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left
	headerCell := props.Cell{BackgroundColor: darkColor}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("SI No", headerText)).WithStyle(&headerCell),
			col.New(3).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("HSN", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Rate", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Discount", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Taxable", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("GST%", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("GST Amt", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Total", headerText)).WithStyle(&headerCell),
		),
	)

	altBg := &props.Color{Red: 248, Green: 249, Blue: 250}

	for i, l := range doc.Lines {
		bodyText := props.Text{Size: 7, Align: align.Center}
		bodyTextLeft := props.Text{Size: 7, Align: align.Left}
		bodyTextRight := props.Text{Size: 7, Align: align.Right}

		cols := []core.Col{
			col.New(1).Add(text.New(fmt.Sprintf("%d", i+1), bodyText)),
			col.New(3).Add(text.New(joinNonEmpty([]string{l.OrderNumber, l.Description}, " / "), bodyTextLeft)),
			col.New(1).Add(text.New(l.HSNCode, bodyText)),
			col.New(1).Add(text.New(formatQty(l.Qty), bodyTextRight)),
			col.New(1).Add(text.New(FormatINR(l.Rate), bodyTextRight)),
			col.New(1).Add(text.New(FormatINR(l.Discount), bodyTextRight)),
			col.New(1).Add(text.New(FormatINR(l.Taxable), bodyTextRight)),
			col.New(1).Add(text.New(FormatPercent(l.GSTPercent), bodyText)),
			col.New(1).Add(text.New(FormatINR(l.GSTAmount), bodyTextRight)),
			col.New(1).Add(text.New(FormatINR(l.Total), bodyTextRight)),
		}
		if i%2 == 1 {
			cell := &props.Cell{BackgroundColor: altBg}
			for j := range cols {
				cols[j] = cols[j].WithStyle(cell)
			}
		}
		m.AddRows(row.New(7).Add(cols...))
	}

	m.AddRows(row.New(2))
}

func addInvoiceTotals(m core.Maroto, doc *InvoiceDocument) {
	t := doc.Totals
	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	labelStyle := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 8, Align: align.Right}

	rows := []struct {
		label string
		value float64
	}{
		{"Gross Amount", t.Gross},
		{"Loyalty Discount", -t.Discount},
		{"Taxable Value", t.Taxable},
	}
	if t.IntraState {
		rows = append(rows,
			struct {
				label string
				value float64
			}{"CGST", t.CGSTAmount},
			struct {
				label string
				value float64
			}{"SGST", t.SGSTAmount},
		)
	} else {
		rows = append(rows, struct {
			label string
			value float64
		}{"IGST", t.IGSTAmount})
	}
	rows = append(rows, struct {
		label string
		value float64
	}{"Round Off", t.RoundOff})

	for _, r := range rows {
		if r.label == "Loyalty Discount" && r.value == 0 {
			continue
		}
		amount := FormatINR(r.value)
		if r.label == "Round Off" {
			amount = FormatRoundOff(r.value)
		}
		m.AddRows(
			row.New(7).Add(
				col.New(9).Add(text.New(r.label, labelStyle)).WithStyle(summaryCell),
				col.New(3).Add(text.New(amount, valueStyle)).WithStyle(summaryCell),
			),
		)
	}

	grandCell := &props.Cell{BackgroundColor: darkColor}
	grandStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Color: whiteColor}
	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(text.New("Grand Total", grandStyle)).WithStyle(grandCell),
			col.New(3).Add(text.New(FormatINR(t.GrandTotal), grandStyle)).WithStyle(grandCell),
		),
	)

	m.AddRows(row.New(3))
}

func addInvoiceAmountInWords(m core.Maroto, doc *InvoiceDocument) {
	if doc.Totals.AmountWords == "" {
		return
	}

	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Amount in Words: %s", doc.Totals.AmountWords), props.Text{
					Size:  8,
					Style: fontstyle.BoldItalic,
					Align: align.Left,
				}),
			),
		),
	)

	m.AddRows(row.New(3))
}

func addInvoiceBankDetails(m core.Maroto, doc *InvoiceDocument) {
	b := doc.Bank
	if b.Beneficiary == "" && b.Name == "" && b.AccountNo == "" && b.IFSC == "" {
		return
	}

	sectionLabel := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Color: darkColor}
	fieldLabel := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: mutedColor}
	fieldValue := props.Text{Size: 8, Align: align.Left}

	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New("BANK DETAILS", sectionLabel)),
		),
	)

	bankRows := []struct{ label, value string }{
		{"Beneficiary Name", b.Beneficiary},
		{"Bank Name", b.Name},
		{"Account No", b.AccountNo},
		{"IFSC Code", b.IFSC},
	}
	for _, br := range bankRows {
		if br.value == "" {
			continue
		}
		m.AddRows(
			row.New(7).Add(
				col.New(3).Add(text.New(br.label, fieldLabel)),
				col.New(9).Add(text.New(br.value, fieldValue)),
			),
		)
	}

	m.AddRows(row.New(3))
}

func addInvoiceTerms(m core.Maroto, doc *InvoiceDocument) {
	if doc.Terms == "" {
		return
	}
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New("TERMS & CONDITIONS", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Color: darkColor})),
		),
	)
	m.AddRows(
		row.New(7).Add(col.New(12).Add(text.New(doc.Terms, props.Text{Size: 8, Align: align.Left}))),
	)
	m.AddRows(row.New(3))
}

func addInvoiceSignature(m core.Maroto, doc *InvoiceDocument) {
	m.AddRows(row.New(10))

	lineStyle := props.Text{Size: 8, Align: align.Center, Color: mutedColor}
	labelStyle := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Center, Color: mutedColor}

	m.AddRows(
		row.New(6).Add(
			col.New(6),
			col.New(6).Add(text.New("____________________________", lineStyle)),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(6),
			col.New(6).Add(text.New(fmt.Sprintf("For %s, Authorised Signatory", doc.Seller.Name), labelStyle)),
		),
	)
}

// joinNonEmpty joins non-empty strings with the given separator.
func joinNonEmpty(parts []string, sep string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	result := ""
	for i, p := range nonEmpty {
		if i > 0 {
			result += sep
		}
		result += p
	}
	return result
}

// fmtField returns "label: value" if value is non-empty, otherwise empty string.
func fmtField(label, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", label, value)
}
