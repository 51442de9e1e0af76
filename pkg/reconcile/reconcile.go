// Package reconcile groups ledger entries per sender so that totals and the
// entries still awaiting manual review can be read at a glance. It is isolated
// from any UI so that the CLI, the workbook writer and the HTTP server share
// the same numbers.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/yurifrl/chatledger/pkg/models"
)

// Summarize returns one row per sender, in order of first appearance. Totals
// add the Numeric amounts only; NeedsVerification entries are counted instead.
func Summarize(entries []models.Entry) []models.SummaryRow {
	type acc struct {
		total  decimal.Decimal
		verify int
	}

	order := make([]string, 0)
	bySender := make(map[string]*acc)

	for _, e := range entries {
		a, ok := bySender[e.Sender]
		if !ok {
			a = &acc{total: decimal.Zero}
			bySender[e.Sender] = a
			order = append(order, e.Sender)
		}
		if v, ok := e.Amount.Value(); ok {
			a.total = a.total.Add(decimal.NewFromFloat(v))
		}
		if e.Amount.NeedsReview() {
			a.verify++
		}
	}

	rows := make([]models.SummaryRow, 0, len(order))
	for _, sender := range order {
		a := bySender[sender]
		rows = append(rows, models.SummaryRow{
			Sender:            sender,
			Total:             a.total.Round(2).InexactFloat64(),
			NeedsVerification: a.verify,
		})
	}
	return rows
}

// Report is the high-level structure produced by the aggregation. Callers
// decide what to display without re-implementing the grouping.
type Report struct {
	Rows []models.SummaryRow
}

// Build aggregates entries into a Report.
func Build(entries []models.Entry) *Report {
	return &Report{Rows: Summarize(entries)}
}

// TotalAmount returns the sum of all sender totals.
func (r *Report) TotalAmount() float64 {
	total := decimal.Zero
	for _, row := range r.Rows {
		total = total.Add(decimal.NewFromFloat(row.Total))
	}
	return total.Round(2).InexactFloat64()
}

// NeedsVerificationCount returns how many entries still need manual review.
func (r *Report) NeedsVerificationCount() int {
	n := 0
	for _, row := range r.Rows {
		n += row.NeedsVerification
	}
	return n
}

// Senders returns the senders in first-appearance order.
func (r *Report) Senders() []string {
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Sender)
	}
	return out
}
