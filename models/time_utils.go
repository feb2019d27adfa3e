package models

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day without a time component.
// The zero value means "no date" (an unparseable or missing cell).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// dateLayouts are tried in order. Month-first wins for ambiguous numeric
// dates, the same way most spreadsheet exports are read. Non-padded day and
// month fields also accept two digits, and month names match in any case.
// Timestamps keep the calendar day of their own offset.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"2-January-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"1/2/2006",
	"1-2-2006",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// NewDate drops the clock part of t.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses s with the known layouts. The second result is false when
// nothing matched.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), true
		}
	}
	return Date{}, false
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, ok := ParseDate(s)
	if !ok {
		panic(fmt.Sprintf("models: invalid date %q", s))
	}
	return d
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
