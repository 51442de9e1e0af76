package plan

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/chatledger/pkg/parser"
)

// Plan lists several reporting periods over one transcript.
type Plan struct {
	Transcript string   `yaml:"transcript"`
	Periods    []Period `yaml:"periods"`
}

type Period struct {
	Name   string `yaml:"name"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Output string `yaml:"output"`
}

// Range is a Period with parsed bounds.
type Range struct {
	Name   string
	Start  time.Time
	End    time.Time
	Output string
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Periods) == 0 {
		return nil, fmt.Errorf("plan has no periods")
	}
	for i, pr := range p.Periods {
		if pr.Output == "" {
			return nil, fmt.Errorf("period %d (%s) has no output", i+1, pr.Name)
		}
	}
	return &p, nil
}

// Ranges parses every period's bounds with layout.
func (p *Plan) Ranges(layout string) ([]Range, error) {
	out := make([]Range, 0, len(p.Periods))
	for i, pr := range p.Periods {
		start, err := parser.ParseRangeDate(pr.Start, layout)
		if err != nil {
			return nil, fmt.Errorf("period %d start: %w", i+1, err)
		}
		end, err := parser.ParseRangeDate(pr.End, layout)
		if err != nil {
			return nil, fmt.Errorf("period %d end: %w", i+1, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("period %d: %w: end before start", i+1, parser.ErrInvalidRange)
		}
		name := pr.Name
		if name == "" {
			name = fmt.Sprintf("period-%d", i+1)
		}
		out = append(out, Range{Name: name, Start: start, End: end, Output: pr.Output})
	}
	return out, nil
}

func (p *Plan) Print(w io.Writer) {
	if p.Transcript != "" {
		fmt.Fprintf(w, "Transcript: %s\n", p.Transcript)
	}
	for i, pr := range p.Periods {
		fmt.Fprintf(w, "[%d] name=%s start=%s end=%s output=%s\n", i+1, pr.Name, pr.Start, pr.End, pr.Output)
	}
}
