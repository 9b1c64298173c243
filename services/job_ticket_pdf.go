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

// GenerateJobTicketPDF renders a job ticket as an A4 portrait PDF.
func GenerateJobTicketPDF(jt *JobTicket, companyName string) ([]byte, error) {
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

	addTicketHeader(m, jt, companyName)
	addTicketSummary(m, jt)
	for _, s := range jt.Sections {
		addTicketSection(m, s)
	}
	addTicketFooter(m, jt)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job ticket PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func addTicketHeader(m core.Maroto, jt *JobTicket, companyName string) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(
				text.New(companyName, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
			col.New(6).Add(
				text.New("JOB TICKET", props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: &props.Color{Red: 33, Green: 37, Blue: 41},
				}),
			),
		),
	)
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Stage: %s", jt.Stage), props.Text{
					Size:  9,
					Align: align.Left,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Order #: %s", jt.OrderNumber), props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Right,
				}),
			),
		),
	)
	m.AddRows(row.New(4))
}

func addTicketSummary(m core.Maroto, jt *JobTicket) {
	labelStyle := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 100, Green: 100, Blue: 100},
	}
	valueStyle := props.Text{Size: 9, Align: align.Left}

	for _, r := range jt.headerRows() {
		if r.Value == "" {
			continue
		}
		m.AddRows(
			row.New(7).Add(
				col.New(3).Add(text.New(r.Label, labelStyle)),
				col.New(9).Add(text.New(r.Value, valueStyle)),
			),
		)
	}
	m.AddRows(row.New(3))
}

func addTicketSection(m core.Maroto, s JobTicketSection) {
	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(s.Title, props.Text{
					Size:  9,
					Style: fontstyle.Bold,
					Align: align.Left,
					Color: &props.Color{Red: 255, Green: 255, Blue: 255},
				}),
			).WithStyle(headerCell),
		),
	)

	altBg := &props.Color{Red: 248, Green: 249, Blue: 250}
	for i, r := range s.Rows {
		label := col.New(4).Add(text.New(r.Label, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left}))
		value := col.New(8).Add(text.New(r.Value, props.Text{Size: 8, Align: align.Left}))
		if i%2 == 1 {
			cell := &props.Cell{BackgroundColor: altBg}
			label = label.WithStyle(cell)
			value = value.WithStyle(cell)
		}
		m.AddRows(row.New(7).Add(label, value))
	}
	m.AddRows(row.New(3))
}

func addTicketFooter(m core.Maroto, jt *JobTicket) {
	if jt.GeneratedAt == "" {
		return
	}
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", jt.GeneratedAt),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
