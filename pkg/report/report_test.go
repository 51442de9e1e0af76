package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/yurifrl/chatledger/pkg/models"
)

func sampleLedger() *models.Ledger {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return &models.Ledger{
		Entries: []models.Entry{
			{Date: day, Time: "10:30 AM", Sender: "Ana", Message: "150,00 for groceries", Amount: models.Numeric(150), Kind: models.KindMessage},
			{Date: day, Time: "11:00 AM", Sender: "Ana", Message: "IMG-1.jpg (file attached)", Amount: models.NeedsVerification(), Kind: models.KindImage, AttachmentPath: "expenses/data/IMG-1.jpg"},
			{Date: day, Time: "12:00 PM", Sender: "Bea", Message: "hello", Amount: models.Zero(), Kind: models.KindMessage},
		},
		Summary: []models.SummaryRow{
			{Sender: "Ana", Total: 150, NeedsVerification: 1},
			{Sender: "Bea", Total: 0},
		},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chat_whatsapp.xlsx")
	if err := WriteWorkbook(afero.NewOsFs(), path, sampleLedger()); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != DetailsSheet || sheets[1] != SummarySheet {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows(DetailsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d detail rows, want 4", len(rows))
	}
	if rows[0][3] != "Message" || rows[0][4] != "Amount" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "15/01/2025" || rows[1][4] != "150" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][4] != models.VerifyLabel || rows[2][5] != "Image" || rows[2][6] != "expenses/data/IMG-1.jpg" {
		t.Errorf("row 2 = %v", rows[2])
	}
	if rows[3][4] != "0" {
		t.Errorf("row 3 amount = %q, want 0", rows[3][4])
	}

	width, err := f.GetColWidth(DetailsSheet, "D")
	if err != nil || width != messageWidth {
		t.Errorf("message column width = %v, %v", width, err)
	}
	height, err := f.GetRowHeight(DetailsSheet, 2)
	if err != nil || height != rowHeight {
		t.Errorf("row height = %v, %v", height, err)
	}

	tables, err := f.GetTables(DetailsSheet)
	if err != nil {
		t.Fatalf("GetTables: %v", err)
	}
	if len(tables) != 1 || tables[0].StyleName != tableStyle {
		t.Errorf("tables = %+v", tables)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("got %d summary rows, want 3", len(summary))
	}
	if summary[1][0] != "Ana" || summary[1][1] != "150" || summary[1][2] != "1" {
		t.Errorf("summary row = %v", summary[1])
	}
}

func TestWrite_EmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &models.Ledger{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(DetailsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}

func TestAmountCell(t *testing.T) {
	if got := AmountCell(models.Numeric(12.5)); got != 12.5 {
		t.Errorf("numeric = %v", got)
	}
	if got := AmountCell(models.NeedsVerification()); got != models.VerifyLabel {
		t.Errorf("verify = %v", got)
	}
	if got := AmountCell(models.Zero()); got != 0 {
		t.Errorf("zero = %v", got)
	}
}

func TestWriteWorkbook_MemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := WriteWorkbook(fs, "expenses/chat_whatsapp.xlsx", sampleLedger()); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	in, err := fs.Open("expenses/chat_whatsapp.xlsx")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()

	f, err := excelize.OpenReader(in)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d summary rows, want 3", len(rows))
	}
}
