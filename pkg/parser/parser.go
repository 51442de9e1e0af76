package parser

import (
	"bytes"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/chatledger/pkg/models"
)

type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// Scanner wraps r in a Scanner that logs dropped lines at debug level.
func (p *Parser) Scanner(data []byte) *Scanner {
	sc := NewScanner(bytes.NewReader(data))
	sc.OnDrop(func(line int, text string) {
		p.logger.Debug("line does not match transcript pattern, skipping", "line", line, "text", text)
	})
	return sc
}

// ProcessBytes parses a whole transcript and reports how many lines were read
// and dropped.
func (p *Parser) ProcessBytes(data []byte) ([]models.RawRecord, models.Stats, error) {
	sc := p.Scanner(data)

	var records []models.RawRecord
	for sc.Scan() {
		records = append(records, sc.Record())
	}
	stats := models.Stats{Lines: sc.Lines(), Records: len(records), Dropped: sc.Dropped()}
	if err := sc.Err(); err != nil {
		return records, stats, err
	}

	p.logger.Debug("transcript parsed", "lines", stats.Lines, "records", stats.Records, "dropped", stats.Dropped)
	return records, stats, nil
}
