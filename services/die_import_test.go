package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV_Valid(t *testing.T) {
	input := "Die Code,Die Name,Frags\nD-101,Square,4\nD-102,Round,2\n"
	headers, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if len(headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(headers))
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(rows))
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader("Die Code,Die Name\n"))
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if !strings.Contains(err.Error(), "at least one data row") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestMapHeadersToFields(t *testing.T) {
	fields := DieImportFields()

	t.Run("labels", func(t *testing.T) {
		mapped, unrecognized := mapHeadersToFields([]string{"Die Code", "Frags", "Price"}, fields)
		if len(unrecognized) != 0 {
			t.Errorf("expected no unrecognized, got %v", unrecognized)
		}
		if mapped[0] != "die_code" || mapped[1] != "frags" || mapped[2] != "price" {
			t.Errorf("unexpected mapping: %v", mapped)
		}
	})

	t.Run("keys and case", func(t *testing.T) {
		mapped, _ := mapHeadersToFields([]string{"DIE_CODE", "product_size_l"}, fields)
		if mapped[0] != "die_code" || mapped[1] != "product_size_l" {
			t.Errorf("unexpected mapping: %v", mapped)
		}
	})

	t.Run("with required asterisk", func(t *testing.T) {
		mapped, unrecognized := mapHeadersToFields([]string{"Die Code *"}, fields)
		if len(unrecognized) != 0 || mapped[0] != "die_code" {
			t.Errorf("mapping = %v, unrecognized = %v", mapped, unrecognized)
		}
	})

	t.Run("unrecognized columns", func(t *testing.T) {
		mapped, unrecognized := mapHeadersToFields([]string{"Die Code", "Colour"}, fields)
		if len(unrecognized) != 1 || unrecognized[0] != "Colour" {
			t.Errorf("expected ['Colour'], got %v", unrecognized)
		}
		if mapped[1] != "" {
			t.Errorf("expected empty for unrecognized column, got %q", mapped[1])
		}
	})
}

func TestValidateDieFile_CSV(t *testing.T) {
	input := strings.Join([]string{
		"Die Code *,Die Name,Frags,Product Length,Product Breadth,Price",
		"d-101,Square,4,10,10,250",
		",Missing code,2,5,5,100",
		"D-101,Duplicate,1,5,5,100",
		"D-103,Negative,1,-3,5,100",
	}, "\n")

	res, err := ValidateDieFile(strings.NewReader(input), "dies.csv")
	if err != nil {
		t.Fatalf("ValidateDieFile() error = %v", err)
	}
	if res.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", res.TotalRows)
	}
	if res.ErrorRows != 3 || res.ValidRows != 1 {
		t.Errorf("ErrorRows = %d, ValidRows = %d; errors: %v", res.ErrorRows, res.ValidRows, res.Errors)
	}
	if res.ParsedRows[0].DieCode != "D-101" {
		t.Errorf("die code not normalised: %q", res.ParsedRows[0].DieCode)
	}

	byRow := map[int]ValidationError{}
	for _, e := range res.Errors {
		byRow[e.Row] = e
	}
	if byRow[3].Message != "dieCode required" {
		t.Errorf("row 3 error = %+v", byRow[3])
	}
	if !strings.Contains(byRow[4].Message, "duplicate of row 2") {
		t.Errorf("row 4 error = %+v", byRow[4])
	}
	if byRow[5].Field != "Product Length" {
		t.Errorf("row 5 error = %+v", byRow[5])
	}
}

func TestValidateDieFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]any{"Die Code", "Frags"})
	f.SetSheetRow(sheet, "A2", &[]any{"D-200", 0})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f.Close()

	res, err := ValidateDieFile(&buf, "DIES.XLSX")
	if err != nil {
		t.Fatalf("ValidateDieFile() error = %v", err)
	}
	if res.ValidRows != 1 {
		t.Fatalf("ValidRows = %d, errors: %v", res.ValidRows, res.Errors)
	}
	// blank frags default to one
	if res.ParsedRows[0].Frags != 1 {
		t.Errorf("Frags = %d, want 1", res.ParsedRows[0].Frags)
	}
}

func TestValidateDieFile_Rejects(t *testing.T) {
	if _, err := ValidateDieFile(strings.NewReader("x"), "dies.txt"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := ValidateDieFile(strings.NewReader("Name\nfoo\n"), "dies.csv"); err == nil {
		t.Error("expected error when Die Code column is missing")
	}
}

func TestGenerateDieTemplate(t *testing.T) {
	result, err := GenerateDieTemplate()
	if err != nil {
		t.Fatalf("GenerateDieTemplate() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	a1, _ := f.GetCellValue("Dies", "A1")
	if a1 != "Die Code *" {
		t.Errorf("A1 = %q, want 'Die Code *'", a1)
	}
}

func TestGenerateErrorReport_WithErrors(t *testing.T) {
	errors := []ValidationError{
		{Row: 2, Field: "Die Code", Message: "dieCode required"},
		{Row: 3, Field: "Frags", Message: "must be no less than 1"},
	}

	result, err := GenerateErrorReport(errors)
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	if sheet != "Errors" {
		t.Errorf("expected sheet name 'Errors', got %q", sheet)
	}

	a1, _ := f.GetCellValue(sheet, "A1")
	b1, _ := f.GetCellValue(sheet, "B1")
	c1, _ := f.GetCellValue(sheet, "C1")
	if a1 != "Row #" || b1 != "Field" || c1 != "Error" {
		t.Errorf("unexpected headers: %q, %q, %q", a1, b1, c1)
	}

	a2, _ := f.GetCellValue(sheet, "A2")
	b2, _ := f.GetCellValue(sheet, "B2")
	if a2 != "2" || b2 != "Die Code" {
		t.Errorf("first row = %q / %q", a2, b2)
	}
}

func TestGenerateErrorReport_NoErrors(t *testing.T) {
	result, err := GenerateErrorReport([]ValidationError{})
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateErrorReport() returned empty bytes")
	}
}
