package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"

	"github.com/yurifrl/chatledger/pkg/models"
)

var header = []string{"Date", "Time", "Sender", "Message", "Amount", "Kind", "Path"}

type FilterFunc func(models.Entry) bool

// Create renders entries as the Details sheet in CSV form. Amounts print as
// "%.2f", or as the review label for entries awaiting verification.
func Create(entries []models.Entry, filter FilterFunc) ([]byte, error) {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range entries {
		if filter != nil && !filter(e) {
			continue
		}
		if err := w.Write([]string{
			e.DateString(),
			e.Time,
			e.Sender,
			e.Message,
			e.Amount.String(),
			string(e.Kind),
			e.AttachmentPath,
		}); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NeedsReview keeps only entries whose amount must be checked by hand.
func NeedsReview(e models.Entry) bool {
	return e.Amount.NeedsReview()
}

// BySender keeps entries from sender.
func BySender(sender string) FilterFunc {
	return func(e models.Entry) bool {
		return e.Sender == sender
	}
}
