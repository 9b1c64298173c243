package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// JobTicketRow is one labelled line of a job ticket section.
type JobTicketRow struct {
	Label string
	Value string
}

// JobTicketSection groups the rows of one production process.
type JobTicketSection struct {
	Title string
	Rows  []JobTicketRow
}

// JobTicket is what the production floor prints for an order. It carries no
// prices.
type JobTicket struct {
	OrderNumber  string
	ClientName   string
	ProjectName  string
	JobType      string
	Quantity     int
	OrderDate    string
	DeliveryDate string
	Stage        string
	Sections     []JobTicketSection
	GeneratedAt  string
}

// BuildJobTicket lays out an order's state for the shop floor. Only the
// processes in use get a section.
func BuildJobTicket(app core.App, order *core.Record) (*JobTicket, error) {
	state, err := StateFromRecord(order)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if id := order.GetString("client"); id != "" {
		client, err := app.FindRecordById("clients", id)
		if err != nil {
			return nil, fmt.Errorf("client of order %s: %w", order.Id, err)
		}
		clientName = client.GetString("name")
	}

	op := state.OrderAndPaper
	jt := &JobTicket{
		OrderNumber:  order.GetString("order_number"),
		ClientName:   clientName,
		ProjectName:  op.ProjectName,
		JobType:      op.JobType,
		Quantity:     op.Quantity,
		OrderDate:    order.GetDateTime("order_date").Time().Format("02 Jan 2006"),
		DeliveryDate: op.DeliveryDate,
		Stage:        order.GetString("stage"),
	}

	paper := op.PaperName
	if op.PaperProvided {
		paper = "Provided by client"
	}
	jt.Sections = append(jt.Sections, JobTicketSection{
		Title: "Paper & Die",
		Rows: []JobTicketRow{
			{"Paper", paper},
			{"Sheets", fmt.Sprintf("%d", SheetsRequired(op.Quantity, op.Frags))},
			{"Die", op.DieCode},
			{"Die size", formatDims(op.DieSize)},
			{"Product size", formatDims(op.ProductSize)},
			{"Frags", fmt.Sprintf("%d", op.Frags)},
		},
	})

	if lp := state.LPDetails; lp.IsLPUsed {
		s := JobTicketSection{Title: "Letterpress", Rows: []JobTicketRow{{"Colours", fmt.Sprintf("%d", lp.NoOfColors)}}}
		for i, c := range lp.ColorDetails {
			s.Rows = append(s.Rows, JobTicketRow{
				Label: fmt.Sprintf("Colour %d", i+1),
				Value: joinNonEmpty([]string{c.PantoneType, c.PlateType, formatDims(c.PlateDimension), c.MRType}, " | "),
			})
		}
		jt.Sections = append(jt.Sections, s)
	}
	if fs := state.FSDetails; fs.IsFSUsed {
		s := JobTicketSection{Title: "Foil Stamping", Rows: []JobTicketRow{{"Type", fs.FSType}}}
		for i, f := range fs.FoilDetails {
			s.Rows = append(s.Rows, JobTicketRow{
				Label: fmt.Sprintf("Foil %d", i+1),
				Value: joinNonEmpty([]string{f.FoilType, f.BlockType, formatDims(f.BlockDimension), f.MRType}, " | "),
			})
		}
		jt.Sections = append(jt.Sections, s)
	}
	if emb := state.EMBDetails; emb.IsEMBUsed {
		jt.Sections = append(jt.Sections, JobTicketSection{Title: "Embossing", Rows: []JobTicketRow{
			{"Plate", formatDims(emb.PlateDimensions)},
			{"Male / Female", joinNonEmpty([]string{emb.PlateTypeMale, emb.PlateTypeFemale}, " / ")},
			{"MR", emb.EMBMR},
		}})
	}
	if d := state.DigiDetails; d.IsDigiUsed {
		jt.Sections = append(jt.Sections, JobTicketSection{Title: "Digital", Rows: []JobTicketRow{
			{"Die", d.DigiDie},
			{"Size", formatDims(d.DigiDimensions)},
		}})
	}
	if dc := state.DieCutting; dc.IsDieCuttingUsed {
		difficult := "No"
		if dc.DifficultCutting {
			difficult = "Yes"
		}
		jt.Sections = append(jt.Sections, JobTicketSection{Title: "Die Cutting", Rows: []JobTicketRow{
			{"MR", dc.DCMR},
			{"Difficult cutting", difficult},
		}})
	}
	if p := state.Pasting; p.IsPastingUsed {
		jt.Sections = append(jt.Sections, JobTicketSection{Title: "Pasting", Rows: []JobTicketRow{{"Type", p.PastingType}}})
	}
	return jt, nil
}

func formatDims(d Dimensions) string {
	if d.Length == 0 && d.Breadth == 0 {
		return ""
	}
	return fmt.Sprintf("%s x %s cm", formatQty(d.Length), formatQty(d.Breadth))
}

// headerRows feeds the summary table of JobTicketHTML.
func (jt *JobTicket) headerRows() []JobTicketRow {
	return []JobTicketRow{
		{"Client", jt.ClientName},
		{"Project", jt.ProjectName},
		{"Job type", jt.JobType},
		{"Quantity", fmt.Sprintf("%d", jt.Quantity)},
		{"Order date", jt.OrderDate},
		{"Delivery date", jt.DeliveryDate},
		{"Stage", jt.Stage},
	}
}
