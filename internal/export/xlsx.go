// Package export renders report collections as spreadsheets.
package export

import (
	"fmt"
	"io"

	"firdesk/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the reports
const SheetName = "FIRs"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{
	"FIR Number", "Date/Time", "Category", "Complainant", "Address", "Phone", "Description", "Created At",
}

// WriteXLSX writes one row per report, in collection order, below a header row
func WriteXLSX(w io.Writer, reports []models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.FIRNumber,
			r.DateTime,
			r.Kind(),
			r.Complainant.Name,
			r.Complainant.Address,
			r.Complainant.Phone,
			r.Complainant.Description,
			r.CreatedAt,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "G", "G", 60); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
