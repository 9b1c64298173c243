package services

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// ExportColumn is one column of a tabular export.
type ExportColumn struct {
	Header string
	Width  float64
	Money  bool
}

// ExportData holds a titled table for spreadsheet export.
type ExportData struct {
	Title       string
	CreatedDate string
	Columns     []ExportColumn
	Rows        [][]any
	Total       float64
	TotalLabel  string
}

var orderExportColumns = []ExportColumn{
	{Header: "Order #", Width: 18},
	{Header: "Date", Width: 12},
	{Header: "Client", Width: 28},
	{Header: "Project", Width: 28},
	{Header: "Job Type", Width: 14},
	{Header: "Qty", Width: 8},
	{Header: "Stage", Width: 14},
	{Header: "Discount %", Width: 10},
	{Header: "Total", Width: 16, Money: true},
	{Header: "Invoiced", Width: 9},
}

var estimateExportColumns = []ExportColumn{
	{Header: "Version", Width: 8},
	{Header: "Client", Width: 28},
	{Header: "Project", Width: 28},
	{Header: "Job Type", Width: 14},
	{Header: "Qty", Width: 8},
	{Header: "Die", Width: 12},
	{Header: "Status", Width: 16},
	{Header: "Total", Width: 16, Money: true},
}

// BuildOrdersExport tabulates order records. clientNames maps client id to
// display name; unknown ids print as the id.
func BuildOrdersExport(orders []*core.Record, clientNames map[string]string, now time.Time) ExportData {
	data := ExportData{
		Title:       "Orders",
		CreatedDate: now.Format("02 Jan 2006"),
		Columns:     orderExportColumns,
		TotalLabel:  "Total Order Value:",
	}
	for _, o := range orders {
		invoiced := "No"
		if o.GetString("invoice") != "" {
			invoiced = "Yes"
		}
		data.Rows = append(data.Rows, []any{
			o.GetString("order_number"),
			o.GetDateTime("order_date").Time().Format("2006-01-02"),
			lookupName(clientNames, o.GetString("client")),
			o.GetString("project_name"),
			o.GetString("job_type"),
			o.GetInt("quantity"),
			o.GetString("stage"),
			o.GetFloat("discount_percent"),
			o.GetFloat("total_amount"),
			invoiced,
		})
		if !o.GetBool("is_canceled") {
			data.Total += o.GetFloat("total_amount")
		}
	}
	data.Total = Round2(data.Total)
	return data
}

// BuildEstimatesExport tabulates estimate records.
func BuildEstimatesExport(estimates []*core.Record, clientNames map[string]string, now time.Time) ExportData {
	data := ExportData{
		Title:       "Estimates",
		CreatedDate: now.Format("02 Jan 2006"),
		Columns:     estimateExportColumns,
		TotalLabel:  "Total Estimated:",
	}
	for _, e := range estimates {
		data.Rows = append(data.Rows, []any{
			e.GetString("version_id"),
			lookupName(clientNames, e.GetString("client")),
			e.GetString("project_name"),
			e.GetString("job_type"),
			e.GetInt("quantity"),
			e.GetString("die_code"),
			e.GetString("status"),
			e.GetFloat("total_amount"),
		})
		if !e.GetBool("is_canceled") {
			data.Total += e.GetFloat("total_amount")
		}
	}
	data.Total = Round2(data.Total)
	return data
}

func lookupName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}
