package plan

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yurifrl/chatledger/pkg/parser"
)

const samplePlan = `
transcript: expenses/data/WhatsApp Chat with Family.txt
periods:
  - name: january
    start: 01/01/2025
    end: 31/01/2025
    output: expenses/january.xlsx
  - start: 01/02/2025
    end: 28/02/2025
    output: expenses/february.xlsx
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(samplePlan), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(p.Periods))
	}

	ranges, err := p.Ranges(parser.DefaultRangeLayout)
	if err != nil {
		t.Fatalf("Ranges: %v", err)
	}
	if ranges[0].Name != "january" || !ranges[0].End.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range 0 = %+v", ranges[0])
	}
	if ranges[1].Name != "period-2" || ranges[1].Output != "expenses/february.xlsx" {
		t.Errorf("range 1 = %+v", ranges[1])
	}

	var buf bytes.Buffer
	p.Print(&buf)
	if !strings.Contains(buf.String(), "[1] name=january start=01/01/2025 end=31/01/2025") {
		t.Errorf("Print output = %q", buf.String())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "periods: [:"},
		{"no periods", "transcript: x.txt\n"},
		{"no output", "periods:\n  - start: 01/01/2025\n    end: 02/01/2025\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRanges_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"malformed start", "2025-01-01", "31/01/2025"},
		{"malformed end", "01/01/2025", "31/13/2025"},
		{"inverted", "31/01/2025", "01/01/2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plan{Periods: []Period{{Start: tt.start, End: tt.end, Output: "x.xlsx"}}}
			if _, err := p.Ranges(parser.DefaultRangeLayout); !errors.Is(err, parser.ErrInvalidRange) {
				t.Errorf("err = %v, want ErrInvalidRange", err)
			}
		})
	}
}
