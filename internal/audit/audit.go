// Package audit checks the calendar of an input file: weekend rows,
// duplicate dates and unparseable date cells.
package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Alias1177/RangeScore/internal/normalize"
	"github.com/Alias1177/RangeScore/internal/table"
	"github.com/Alias1177/RangeScore/models"
)

// Result is the calendar audit of one file.
type Result struct {
	File        string
	Records     int
	Saturdays   int
	Sundays     int
	Unparseable int
	// Duplicates lists every date seen more than once, ascending.
	Duplicates []models.Date
	First      models.Date
	Last       models.Date
}

// Clean reports whether the file has only weekday, unique, parseable dates.
func (r Result) Clean() bool {
	return r.Saturdays == 0 && r.Sundays == 0 && r.Unparseable == 0 && len(r.Duplicates) == 0
}

// File loads and audits a table file.
func File(path string) (Result, error) {
	t, err := table.Load(path)
	if err != nil {
		return Result{}, err
	}
	return Table(t)
}

// Table audits the rows of t using its date column.
func Table(t *table.Table) (Result, error) {
	col, err := normalize.LocateDateColumn(t)
	if err != nil {
		return Result{}, err
	}

	res := Result{File: t.Name, Records: len(t.Rows)}
	seen := make(map[models.Date]int, len(t.Rows))
	for _, row := range t.Rows {
		raw, _ := row.Get(col)
		d, ok := models.ParseDate(raw)
		if !ok {
			res.Unparseable++
			continue
		}
		seen[d]++
		switch d.Weekday() {
		case time.Saturday:
			res.Saturdays++
		case time.Sunday:
			res.Sundays++
		}
		if res.First.IsZero() || d.Before(res.First) {
			res.First = d
		}
		if res.Last.IsZero() || res.Last.Before(d) {
			res.Last = d
		}
	}

	for d, n := range seen {
		if n > 1 {
			res.Duplicates = append(res.Duplicates, d)
		}
	}
	sort.Slice(res.Duplicates, func(i, j int) bool { return res.Duplicates[i].Before(res.Duplicates[j]) })
	return res, nil
}

// String renders the audit in a few lines.
func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", r.File)
	fmt.Fprintf(&b, "  Total records: %d\n", r.Records)
	if !r.First.IsZero() {
		fmt.Fprintf(&b, "  Span: %s (%s) .. %s (%s)\n", r.First, r.First.Weekday(), r.Last, r.Last.Weekday())
	}
	fmt.Fprintf(&b, "  Saturdays: %d\n", r.Saturdays)
	fmt.Fprintf(&b, "  Sundays: %d\n", r.Sundays)
	fmt.Fprintf(&b, "  Unparseable dates: %d\n", r.Unparseable)
	if len(r.Duplicates) > 0 {
		dups := make([]string, len(r.Duplicates))
		for i, d := range r.Duplicates {
			dups[i] = d.String()
		}
		fmt.Fprintf(&b, "  Duplicate dates: %s\n", strings.Join(dups, ", "))
	} else {
		b.WriteString("  Duplicate dates: none\n")
	}
	return b.String()
}
