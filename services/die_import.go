package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned after parsing and validating an uploaded file.
type ValidationResult struct {
	TotalRows  int               `json:"total_rows"`
	ValidRows  int               `json:"valid_rows"`
	ErrorRows  int               `json:"error_rows"`
	Errors     []ValidationError `json:"errors"`
	ParsedRows []DieInput        `json:"-"`
	FileName   string            `json:"-"`
}

// ImportField is one recognised column of the die import sheet.
type ImportField struct {
	Key      string
	Label    string
	Required bool
}

// DieImportFields lists the die sheet columns in template order.
func DieImportFields() []ImportField {
	return []ImportField{
		{Key: "die_code", Label: "Die Code", Required: true},
		{Key: "die_name", Label: "Die Name"},
		{Key: "job_type", Label: "Job Type"},
		{Key: "type", Label: "Type"},
		{Key: "frags", Label: "Frags"},
		{Key: "product_size_l", Label: "Product Length"},
		{Key: "product_size_b", Label: "Product Breadth"},
		{Key: "die_size_l", Label: "Die Length"},
		{Key: "die_size_b", Label: "Die Breadth"},
		{Key: "price", Label: "Price"},
	}
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}

// mapHeadersToFields maps uploaded column headers to field keys, matching on
// label or key. Returns one key per column and any unrecognized columns.
func mapHeadersToFields(headers []string, fields []ImportField) ([]string, []string) {
	lookup := make(map[string]string, len(fields)*2)
	for _, f := range fields {
		lookup[strings.ToLower(strings.TrimSpace(f.Label))] = f.Key
		lookup[strings.ToLower(f.Key)] = f.Key
	}

	mapped := make([]string, len(headers))
	var unrecognized []string

	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Strip trailing " *" that the template adds for required fields
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))

		if key, ok := lookup[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// ValidateDieFile parses a .csv or .xlsx die sheet and validates every row.
// Rows are returned even when invalid so the caller can report them.
func ValidateDieFile(file io.Reader, fileName string) (*ValidationResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	fields := DieImportFields()
	columnKeys, _ := mapHeadersToFields(headers, fields)
	if !slices.Contains(columnKeys, "die_code") {
		return nil, fmt.Errorf("missing required column %q", "Die Code")
	}

	keyToLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		keyToLabel[f.Key] = f.Label
	}

	result := &ValidationResult{
		TotalRows:  len(dataRows),
		FileName:   fileName,
		ParsedRows: make([]DieInput, 0, len(dataRows)),
	}
	seen := make(map[string]int)

	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		rowData := make(map[string]string)
		for colIdx, key := range columnKeys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			rowData[key] = strings.TrimSpace(row[colIdx])
		}

		in := DieInput{
			DieCode:      rowData["die_code"],
			DieName:      rowData["die_name"],
			JobType:      rowData["job_type"],
			Type:         rowData["type"],
			Frags:        FormInt(rowData["frags"]),
			ProductSizeL: FormFloat(rowData["product_size_l"]),
			ProductSizeB: FormFloat(rowData["product_size_b"]),
			DieSizeL:     FormFloat(rowData["die_size_l"]),
			DieSizeB:     FormFloat(rowData["die_size_b"]),
			Price:        FormFloat(rowData["price"]),
		}
		in.Normalize()

		var rowErrors []ValidationError
		if err := in.Validate(); err != nil {
			rowErrors = append(rowErrors, rowValidationErrors(rowNum, err, dieFieldLabels)...)
		}
		if first, dup := seen[in.DieCode]; dup && in.DieCode != "" {
			rowErrors = append(rowErrors, ValidationError{
				Row:     rowNum,
				Field:   "Die Code",
				Message: fmt.Sprintf("duplicate of row %d", first),
			})
		} else {
			seen[in.DieCode] = rowNum
		}

		result.Errors = append(result.Errors, rowErrors...)
		result.ParsedRows = append(result.ParsedRows, in)
	}

	errorRowSet := make(map[int]bool)
	for _, e := range result.Errors {
		errorRowSet[e.Row] = true
	}
	result.ErrorRows = len(errorRowSet)
	result.ValidRows = result.TotalRows - result.ErrorRows

	return result, nil
}

// dieFieldLabels maps DieInput JSON names to sheet labels.
var dieFieldLabels = map[string]string{
	"dieCode":      "Die Code",
	"frags":        "Frags",
	"productSizeL": "Product Length",
	"productSizeB": "Product Breadth",
	"dieSizeL":     "Die Length",
	"dieSizeB":     "Die Breadth",
	"price":        "Price",
}

func rowValidationErrors(rowNum int, err error, labels map[string]string) []ValidationError {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Row: rowNum, Message: err.Error()}}
	}
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]ValidationError, 0, len(keys))
	for _, k := range keys {
		label := labels[k]
		if label == "" {
			label = k
		}
		out = append(out, ValidationError{Row: rowNum, Field: label, Message: verrs[k].Error()})
	}
	return out
}

// ImportResult summarises a die import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ImportDies upserts validated rows by die code inside one transaction.
func ImportDies(app core.App, rows []DieInput) (ImportResult, error) {
	var res ImportResult
	err := app.RunInTransaction(func(txApp core.App) error {
		col, err := txApp.FindCollectionByNameOrId("dies")
		if err != nil {
			return fmt.Errorf("find dies collection: %w", err)
		}
		for _, in := range rows {
			rec, err := txApp.FindFirstRecordByData(col, "die_code", in.DieCode)
			if err != nil {
				rec = core.NewRecord(col)
				res.Created++
			} else {
				res.Updated++
			}
			ApplyDieInput(rec, in)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save die %s: %w", in.DieCode, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// ApplyDieInput copies the editable die fields onto a record.
func ApplyDieInput(rec *core.Record, in DieInput) {
	rec.Set("die_code", in.DieCode)
	rec.Set("die_name", in.DieName)
	rec.Set("job_type", in.JobType)
	rec.Set("type", in.Type)
	rec.Set("frags", in.Frags)
	rec.Set("product_size_l", in.ProductSizeL)
	rec.Set("product_size_b", in.ProductSizeB)
	rec.Set("die_size_l", in.DieSizeL)
	rec.Set("die_size_b", in.DieSizeB)
	rec.Set("price", in.Price)
}

// GenerateDieTemplate returns an empty die sheet with the expected headers.
func GenerateDieTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Dies"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	fields := DieImportFields()
	for i, fld := range fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		label := fld.Label
		if fld.Required {
			label += " *"
		}
		f.SetCellValue(sheet, cell, label)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, name, name, 16)
	}
	last, _ := excelize.CoordinatesToCellName(len(fields), 1)
	f.SetCellStyle(sheet, "A1", last, headerStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write die template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
