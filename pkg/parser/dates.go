package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDateParse is wrapped by every DateError.
	ErrDateParse = errors.New("unparseable date")
	// ErrInvalidRange is returned for malformed or inverted range bounds.
	ErrInvalidRange = errors.New("invalid date range")
)

// DateOrder is the field order of transcript dates.
type DateOrder string

const (
	OrderMonthDay DateOrder = "mdy"
	OrderDayMonth DateOrder = "dmy"
)

// DefaultRangeLayout is the day/month/year layout users type range bounds in.
const DefaultRangeLayout = "02/01/2006"

// layouts are tried in order: 4-digit year first, then 2-digit year.
func (o DateOrder) layouts() []string {
	if o == OrderDayMonth {
		return []string{"2/1/2006", "2/1/06"}
	}
	return []string{"1/2/2006", "1/2/06"}
}

// ParseDateOrder validates a configured order.
func ParseDateOrder(s string) (DateOrder, error) {
	switch DateOrder(strings.ToLower(strings.TrimSpace(s))) {
	case OrderMonthDay, "":
		return OrderMonthDay, nil
	case OrderDayMonth:
		return OrderDayMonth, nil
	default:
		return "", fmt.Errorf("unknown date order %q (want mdy or dmy)", s)
	}
}

// DateError reports a transcript date no accepted layout could parse.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDateParse, e.Value)
}

func (e *DateError) Unwrap() error {
	return ErrDateParse
}

// DateFilter parses transcript dates and keeps those inside an inclusive
// calendar-day range.
type DateFilter struct {
	start time.Time
	end   time.Time
	order DateOrder
}

// NewDateFilter builds a filter for [start, end]. Time of day is ignored.
func NewDateFilter(start, end time.Time, order DateOrder) (*DateFilter, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			end.Format(DefaultRangeLayout), start.Format(DefaultRangeLayout))
	}
	if order == "" {
		order = OrderMonthDay
	}
	return &DateFilter{start: start, end: end, order: order}, nil
}

func (f *DateFilter) Start() time.Time { return f.start }
func (f *DateFilter) End() time.Time   { return f.end }

// Parse converts a transcript date string to a calendar date.
func (f *DateFilter) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range f.order.layouts() {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateError{Value: s}
}

// Contains reports whether t falls on a day within the range.
func (f *DateFilter) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(f.start) && !d.After(f.end)
}

// Accept parses s and reports whether it is inside the range.
func (f *DateFilter) Accept(s string) (time.Time, bool, error) {
	t, err := f.Parse(s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, f.Contains(t), nil
}

// ParseRangeDate parses a user-supplied range bound.
func ParseRangeDate(input, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultRangeLayout
	}
	t, err := time.Parse(layout, strings.TrimSpace(input))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %s", ErrInvalidRange, input, layout)
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
