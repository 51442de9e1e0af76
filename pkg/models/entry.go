package models

import "time"

// EntryKind is the report-facing type of an entry.
type EntryKind string

const (
	KindMessage EntryKind = "Message"
	KindImage   EntryKind = "Image"
)

// Entry is a message that survived filtering, classification and extraction.
type Entry struct {
	Date           time.Time      `json:"date"`
	Time           string         `json:"time"`
	Sender         string         `json:"sender"`
	Message        string         `json:"message"`
	Amount         Amount         `json:"amount"`
	Kind           EntryKind      `json:"kind"`
	Attachment     AttachmentKind `json:"-"`
	AttachmentPath string         `json:"path,omitempty"`
}

// DateString formats the entry date the way reports print it.
func (e Entry) DateString() string {
	return e.Date.Format("02/01/2006")
}

// SummaryRow holds the per-sender totals.
type SummaryRow struct {
	Sender            string  `json:"sender"`
	Total             float64 `json:"total"`
	NeedsVerification int     `json:"needs_verification"`
}

// Stats counts what happened to every transcript line so that drops are
// observable.
type Stats struct {
	Lines      int `json:"lines"`
	Records    int `json:"records"`
	Dropped    int `json:"dropped"`
	Rejected   int `json:"rejected"`
	OutOfRange int `json:"out_of_range"`
	Skipped    int `json:"skipped"`
	Entries    int `json:"entries"`
}

// Ledger is the result of one pipeline run.
type Ledger struct {
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Entries []Entry      `json:"entries"`
	Summary []SummaryRow `json:"summary"`
	Stats   Stats        `json:"stats"`
}
