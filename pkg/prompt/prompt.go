// Package prompt asks the user for report parameters on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yurifrl/chatledger/pkg/parser"
)

var layoutHint = strings.NewReplacer("2006", "yyyy", "01", "mm", "02", "dd", "06", "yy")

// DateRange returns the report bounds from the flag values, prompting on
// in for any that are empty. Malformed input is an error.
func DateRange(startFlag, endFlag, layout string, in *bufio.Reader, out io.Writer) (time.Time, time.Time, error) {
	if layout == "" {
		layout = parser.DefaultRangeLayout
	}

	start, err := rangeDate("Start date", startFlag, layout, in, out)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := rangeDate("End date", endFlag, layout, in, out)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date is before start date", parser.ErrInvalidRange)
	}
	return start, end, nil
}

func rangeDate(label, value, layout string, in *bufio.Reader, out io.Writer) (time.Time, error) {
	if value == "" {
		fmt.Fprintf(out, "%s (%s): ", label, layoutHint.Replace(layout))
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return time.Time{}, fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		value = line
	}

	t, err := parser.ParseRangeDate(value, layout)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, use the format %s: %w", strings.ToLower(label), layoutHint.Replace(layout), err)
	}
	return t, nil
}
