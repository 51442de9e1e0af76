// Package pdftext extracts the text layer of PDF receipts.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF has no extractable text layer.
var ErrNoText = errors.New("pdf has no text")

type Reader struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadPDF returns the text of every page joined by newlines.
func (r *Reader) ReadPDF(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, rd, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading PDF %s: %w", path, err)
	}
	defer f.Close()

	pages := extractByRow(rd)
	if totalLen(pages) == 0 {
		r.logger.Debug("row extraction returned nothing, trying plain text", "path", path)
		if plain := extractPlainText(rd); plain != "" {
			pages = []string{plain}
		}
	}
	if totalLen(pages) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}
	return strings.Join(pages, "\n"), nil
}

func extractByRow(rd *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= rd.NumPage(); i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractPlainText(rd *pdf.Reader) string {
	reader, err := rd.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func totalLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
