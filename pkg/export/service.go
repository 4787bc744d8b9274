package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/propstack/buyerbase/pkg/models"
)

// Formats accepted by the export endpoint.
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// headers match the import columns exactly, so an exported file can be
// re-imported unchanged.
var headers = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk",
	"purpose", "budgetMin", "budgetMax", "timeline", "source",
	"notes", "tags", "status",
}

// Filename returns the download name for an export taken at the given time,
// e.g. buyers-export-2026-08-29.csv.
func Filename(format string, now time.Time) string {
	ext := "csv"
	if format == FormatExcel {
		ext = "xlsx"
	}
	return fmt.Sprintf("buyers-export-%s.%s", now.Format("2006-01-02"), ext)
}

// WriteCSV streams the buyers as CSV.
func WriteCSV(w io.Writer, buyersList []models.Buyer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, b := range buyersList {
		if err := writer.Write(rowFor(&b)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteExcel writes the buyers as an xlsx workbook.
func WriteExcel(w io.Writer, buyersList []models.Buyer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Buyers"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, b := range buyersList {
		row := rowIdx + 2
		for colIdx, value := range rowFor(&b) {
			f.SetCellValue(sheetName, fmt.Sprintf("%c%d", 'A'+colIdx, row), value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	f.SetActiveSheet(index)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func rowFor(b *models.Buyer) []string {
	return []string{
		b.FullName,
		strDeref(b.Email),
		b.Phone,
		b.City,
		b.PropertyType,
		strDeref(b.BHK),
		b.Purpose,
		intDeref(b.BudgetMin),
		intDeref(b.BudgetMax),
		b.Timeline,
		b.Source,
		strDeref(b.Notes),
		strings.Join(b.Tags, ","),
		b.Status,
	}
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intDeref(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
