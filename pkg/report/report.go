// Package report writes a Ledger as an xlsx workbook with a Details sheet
// listing every entry and a Summary sheet with the per-sender totals.
package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/yurifrl/chatledger/pkg/models"
)

const (
	DetailsSheet = "Details"
	SummarySheet = "Summary"

	tableName    = "DetailsTable"
	tableStyle   = "TableStyleMedium9"
	messageCol   = "D"
	messageWidth = 50
	rowHeight    = 30
)

var (
	detailsHeader = []interface{}{"Date", "Time", "Sender", "Message", "Amount", "Kind", "Path"}
	summaryHeader = []interface{}{"Sender", "Total Amount", "Verify Count"}
)

// WriteWorkbook saves the ledger to path on fs, creating parent directories.
func WriteWorkbook(fs afero.Fs, path string, ledger *models.Ledger) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	out, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook %s: %w", path, err)
	}
	if err := Write(out, ledger); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Write streams the workbook to w.
func Write(w io.Writer, ledger *models.Ledger) error {
	f, err := Build(ledger)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build lays out both sheets in memory. The caller closes the file.
func Build(ledger *models.Ledger) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", DetailsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	if err := writeDetails(f, ledger.Entries); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, ledger.Summary); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeDetails(f *excelize.File, entries []models.Entry) error {
	if err := f.SetSheetRow(DetailsSheet, "A1", &detailsHeader); err != nil {
		return fmt.Errorf("write details header: %w", err)
	}

	for i, e := range entries {
		row := []interface{}{
			e.DateString(),
			e.Time,
			e.Sender,
			e.Message,
			AmountCell(e.Amount),
			string(e.Kind),
			e.AttachmentPath,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DetailsSheet, cell, &row); err != nil {
			return fmt.Errorf("write details row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(DetailsSheet, messageCol, messageCol, messageWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	for r := 1; r <= len(entries)+1; r++ {
		if err := f.SetRowHeight(DetailsSheet, r, rowHeight); err != nil {
			return fmt.Errorf("set row height: %w", err)
		}
	}

	if len(entries) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(detailsHeader), len(entries)+1)
	if err != nil {
		return err
	}
	showStripes := true
	if err := f.AddTable(DetailsSheet, &excelize.Table{
		Range:          "A1:" + last,
		Name:           tableName,
		StyleName:      tableStyle,
		ShowRowStripes: &showStripes,
	}); err != nil {
		return fmt.Errorf("add details table: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, rows []models.SummaryRow) error {
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "C1", bold); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}

	for i, r := range rows {
		row := []interface{}{r.Sender, r.Total, r.NeedsVerification}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+2, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 25)
}

// AmountCell is the value written for an amount: the number for Numeric, the
// review label for NeedsVerification and 0 for Zero.
func AmountCell(a models.Amount) interface{} {
	switch a.Kind() {
	case models.AmountNumeric:
		v, _ := a.Value()
		return v
	case models.AmountNeedsVerification:
		return models.VerifyLabel
	default:
		return 0
	}
}
