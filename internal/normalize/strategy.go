package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Alias1177/RangeScore/internal/table"
)

// rangePattern matches "<number> <separator> <number>" where the separator is
// any run of '-', en-dash or the word "to".
var rangePattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(?:(?:-|–|(?i:to))\s*)+(\d[\d,]*(?:\.\d+)?)`)

// Strategy is one step of the resolution chain: a predicate on the row's
// columns and an extractor that may still fail on the cell values.
type Strategy struct {
	Name    string
	Applies func(row table.Row) bool
	Extract func(row table.Row) (support, resistance float64, ok bool)
}

// DefaultChain is the resolution order used for every source file.
var DefaultChain = []Strategy{
	PairedColumns("support_level", "resistance_level"),
	PairedColumns("support", "resistance"),
	RangeText("nifty_range"),
	RangeText("nifty_range_today"),
	RangeText("nifty_rangetoday"),
	AnyRangeText(),
}

// PairedColumns reads support and resistance from two numeric columns.
func PairedColumns(supportCol, resistanceCol string) Strategy {
	return Strategy{
		Name: supportCol + "+" + resistanceCol,
		Applies: func(row table.Row) bool {
			_, okS := row.Get(supportCol)
			_, okR := row.Get(resistanceCol)
			return okS && okR
		},
		Extract: func(row table.Row) (float64, float64, bool) {
			a, _ := row.Get(supportCol)
			b, _ := row.Get(resistanceCol)
			s, okS := ParseNumber(a)
			r, okR := ParseNumber(b)
			return s, r, okS && okR
		},
	}
}

// RangeText extracts both bounds from a free-text column such as "25,800 - 27,200".
func RangeText(col string) Strategy {
	return Strategy{
		Name: col,
		Applies: func(row table.Row) bool {
			_, ok := row.Get(col)
			return ok
		},
		Extract: func(row table.Row) (float64, float64, bool) {
			v, _ := row.Get(col)
			return ParseRange(v)
		},
	}
}

// AnyRangeText tries every column whose name contains "range", in column order.
func AnyRangeText() Strategy {
	return Strategy{
		Name: "*range*",
		Applies: func(row table.Row) bool {
			return len(rangeColumns(row)) > 0
		},
		Extract: func(row table.Row) (float64, float64, bool) {
			for _, i := range rangeColumns(row) {
				if s, r, ok := ParseRange(row.Cell(i)); ok {
					return s, r, true
				}
			}
			return 0, 0, false
		},
	}
}

func rangeColumns(row table.Row) []int {
	var idx []int
	for i, h := range row.Headers() {
		if strings.Contains(strings.ToLower(h), "range") {
			idx = append(idx, i)
		}
	}
	return idx
}

// ParseRange extracts the first "<low> - <high>" pair found in s.
func ParseRange(s string) (support, resistance float64, ok bool) {
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	support, okS := ParseNumber(m[1])
	resistance, okR := ParseNumber(m[2])
	if !okS || !okR {
		return 0, 0, false
	}
	return support, resistance, true
}

// ParseNumber parses a decimal with optional thousands commas. Empty cells and
// non-finite values are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
