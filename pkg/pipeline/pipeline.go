// Package pipeline turns a transcript into a Ledger: parse, filter by date,
// classify, extract amounts and summarize per sender.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/chatledger/pkg/extract"
	"github.com/yurifrl/chatledger/pkg/models"
	"github.com/yurifrl/chatledger/pkg/parser"
	"github.com/yurifrl/chatledger/pkg/reconcile"
)

// Extractor derives the amount of a classified message.
type Extractor interface {
	Extract(ctx context.Context, kind models.AttachmentKind, message string) extract.Result
}

type Pipeline struct {
	filter    *parser.DateFilter
	extractor Extractor
	logger    *log.Logger
	processed atomic.Int64
}

func New(filter *parser.DateFilter, extractor Extractor, logger *log.Logger) *Pipeline {
	return &Pipeline{
		filter:    filter,
		extractor: extractor,
		logger:    logger,
	}
}

// Processed returns how many records the current run has handled. It is safe
// to call from another goroutine while Run is in progress.
func (p *Pipeline) Processed() int {
	return int(p.processed.Load())
}

// Run consumes r and builds the ledger. Per-record failures are logged and
// counted; only read errors and cancellation end the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*models.Ledger, error) {
	p.processed.Store(0)

	sc := parser.NewScanner(r)
	sc.OnDrop(func(line int, text string) {
		p.logger.Debug("line does not match transcript pattern, skipping", "line", line, "text", text)
	})

	var stats models.Stats
	entries := make([]models.Entry, 0)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline canceled: %w", err)
		}

		rec := sc.Record()
		stats.Records++
		p.processed.Add(1)

		entry, ok := p.process(ctx, rec, &stats)
		if ok {
			entries = append(entries, entry)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	stats.Lines = sc.Lines()
	stats.Dropped = sc.Dropped()
	stats.Entries = len(entries)

	p.logger.Debug("pipeline finished",
		"lines", stats.Lines,
		"records", stats.Records,
		"dropped", stats.Dropped,
		"rejected", stats.Rejected,
		"out_of_range", stats.OutOfRange,
		"skipped", stats.Skipped,
		"entries", stats.Entries,
	)

	return &models.Ledger{
		Start:   p.filter.Start(),
		End:     p.filter.End(),
		Entries: entries,
		Summary: reconcile.Summarize(entries),
		Stats:   stats,
	}, nil
}

func (p *Pipeline) process(ctx context.Context, rec models.RawRecord, stats *models.Stats) (models.Entry, bool) {
	date, inRange, err := p.filter.Accept(rec.Date)
	if err != nil {
		stats.Rejected++
		p.logger.Warn("rejecting record with unparseable date", "line", rec.Line, "date", rec.Date, "err", err)
		return models.Entry{}, false
	}
	if !inRange {
		stats.OutOfRange++
		return models.Entry{}, false
	}

	kind := parser.Classify(rec.Message)
	if kind == models.AttachmentSkip {
		stats.Skipped++
		return models.Entry{}, false
	}

	res := p.extractor.Extract(ctx, kind, rec.Message)
	if res.Err != nil {
		p.logger.Debug("amount flagged", "line", rec.Line, "sender", rec.Sender, "err", res.Err)
	}

	entry := models.Entry{
		Date:       date,
		Time:       rec.Time,
		Sender:     rec.Sender,
		Message:    res.Message,
		Amount:     res.Amount,
		Kind:       models.KindMessage,
		Attachment: kind,
	}
	if kind.IsFile() {
		entry.Kind = models.KindImage
		entry.AttachmentPath = res.Path
	}
	return entry, true
}
