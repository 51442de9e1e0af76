package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/yurifrl/chatledger/pkg/config"
	"github.com/yurifrl/chatledger/pkg/csv"
	"github.com/yurifrl/chatledger/pkg/models"
	"github.com/yurifrl/chatledger/pkg/parser"
	"github.com/yurifrl/chatledger/pkg/pipeline"
	"github.com/yurifrl/chatledger/pkg/plan"
	"github.com/yurifrl/chatledger/pkg/report"
	"github.com/yurifrl/chatledger/pkg/source"
)

// Result describes one finished report.
type Result struct {
	Name       string
	Transcript string
	Output     string
	Ledger     *models.Ledger
	Elapsed    time.Duration
}

// Processor locates the transcript, runs the pipeline and writes the report.
type Processor struct {
	config    *config.Config
	fs        afero.Fs
	extractor pipeline.Extractor
	logger    *log.Logger
	current   atomic.Pointer[pipeline.Pipeline]
}

func NewProcessor(config *config.Config, fs afero.Fs, extractor pipeline.Extractor, logger *log.Logger) *Processor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Processor{
		config:    config,
		fs:        fs,
		extractor: extractor,
		logger:    logger,
	}
}

// Processed returns how many records the running pipeline has handled.
func (p *Processor) Processed() int {
	if pl := p.current.Load(); pl != nil {
		return pl.Processed()
	}
	return 0
}

// Locate returns the transcript path from the data directory.
func (p *Processor) Locate() (string, error) {
	return source.Find(p.fs, p.config.DataDir, p.config.Pattern)
}

// Process builds a report for [start, end] into the configured output.
func (p *Processor) Process(ctx context.Context, start, end time.Time) (*Result, error) {
	began := time.Now()

	f, transcript, err := source.Open(p.fs, p.config.DataDir, p.config.Pattern)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p.logger.Info("processing transcript", "path", transcript)
	ledger, err := p.BuildReader(ctx, f, start, end)
	if err != nil {
		return nil, err
	}
	return p.finish(ledger, transcript, p.config.Output, began)
}

// ProcessFile builds a report for [start, end] from transcript into output.
func (p *Processor) ProcessFile(ctx context.Context, transcript string, start, end time.Time, output string) (*Result, error) {
	began := time.Now()

	ledger, err := p.Build(ctx, transcript, start, end)
	if err != nil {
		return nil, err
	}
	return p.finish(ledger, transcript, output, began)
}

func (p *Processor) finish(ledger *models.Ledger, transcript, output string, began time.Time) (*Result, error) {
	t0 := time.Now()
	if err := p.Write(ledger, output); err != nil {
		return nil, err
	}
	p.logger.Info("phase done", "phase", "write", "output", output, "took", time.Since(t0))

	return &Result{
		Transcript: transcript,
		Output:     output,
		Ledger:     ledger,
		Elapsed:    time.Since(began),
	}, nil
}

// Build runs the pipeline over transcript without writing anything.
func (p *Processor) Build(ctx context.Context, transcript string, start, end time.Time) (*models.Ledger, error) {
	filter, err := parser.NewDateFilter(start, end, p.config.DateOrder())
	if err != nil {
		return nil, err
	}

	f, err := p.fs.Open(transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	p.logger.Info("processing transcript", "path", transcript,
		"start", filter.Start().Format(parser.DefaultRangeLayout),
		"end", filter.End().Format(parser.DefaultRangeLayout))
	return p.run(ctx, filter, f)
}

// BuildReader runs the pipeline over an already opened transcript.
func (p *Processor) BuildReader(ctx context.Context, r io.Reader, start, end time.Time) (*models.Ledger, error) {
	filter, err := parser.NewDateFilter(start, end, p.config.DateOrder())
	if err != nil {
		return nil, err
	}
	return p.run(ctx, filter, r)
}

func (p *Processor) run(ctx context.Context, filter *parser.DateFilter, r io.Reader) (*models.Ledger, error) {
	pl := pipeline.New(filter, p.extractor, p.logger)
	p.current.Store(pl)

	t0 := time.Now()
	ledger, err := pl.Run(ctx, r)
	if err != nil {
		return nil, err
	}
	p.logger.Info("phase done", "phase", "pipeline",
		"entries", ledger.Stats.Entries,
		"dropped", ledger.Stats.Dropped,
		"rejected", ledger.Stats.Rejected,
		"took", time.Since(t0))
	return ledger, nil
}

// Write saves the ledger in the configured format.
func (p *Processor) Write(ledger *models.Ledger, output string) error {
	switch p.config.Format {
	case "csv":
		data, err := csv.Create(ledger.Entries, nil)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(output); dir != "." {
			if err := p.fs.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
		}
		if err := afero.WriteFile(p.fs, output, data, 0644); err != nil {
			return fmt.Errorf("error writing output file: %w", err)
		}
		return nil
	default:
		return report.WriteWorkbook(p.fs, output, ledger)
	}
}

// ProcessPlan writes one report per period of pl. Periods run in order and
// the first failure stops the plan.
func (p *Processor) ProcessPlan(ctx context.Context, pl *plan.Plan) ([]Result, error) {
	ranges, err := pl.Ranges(p.config.Dates.RangeLayout)
	if err != nil {
		return nil, err
	}

	transcript := pl.Transcript
	if transcript == "" {
		if transcript, err = p.Locate(); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(ranges))
	for _, r := range ranges {
		res, err := p.ProcessFile(ctx, transcript, r.Start, r.End, p.config.OutputPath(r.Output))
		if err != nil {
			return results, fmt.Errorf("period %s: %w", r.Name, err)
		}
		res.Name = r.Name
		results = append(results, *res)
	}
	return results, nil
}
