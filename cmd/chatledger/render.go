package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/chatledger/pkg/reconcile"
	"github.com/yurifrl/chatledger/pkg/service"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	verifyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

func renderProgress(w io.Writer, elapsed time.Duration, processed int) {
	line := fmt.Sprintf("Building report... %s (%d messages)", elapsed.Truncate(time.Second), processed)
	fmt.Fprintf(w, "\r%s", progressStyle.Render(line))
}

func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 60))
}

// renderResult prints the per-sender summary and the run counters.
func renderResult(w io.Writer, res *service.Result) {
	r := reconcile.Build(res.Ledger.Entries)

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-30s %14s %8s", "Sender", "Total", "Verify")))
	for _, row := range r.Rows {
		line := fmt.Sprintf("%-30s %14.2f %8d", row.Sender, row.Total, row.NeedsVerification)
		if row.NeedsVerification > 0 {
			fmt.Fprintln(w, verifyStyle.Render(line))
			continue
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-30s %14.2f %8d", "Total", r.TotalAmount(), r.NeedsVerificationCount())))

	s := res.Ledger.Stats
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(
		"%d lines, %d records, %d dropped, %d rejected, %d out of range, %d skipped",
		s.Lines, s.Records, s.Dropped, s.Rejected, s.OutOfRange, s.Skipped)))

	if n := r.NeedsVerificationCount(); n > 0 {
		fmt.Fprintln(w, verifyStyle.Render(fmt.Sprintf("%d entr(ies) need manual verification", n)))
	}
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Report written to %s (%s)", res.Output, res.Elapsed.Truncate(time.Millisecond))))
}
