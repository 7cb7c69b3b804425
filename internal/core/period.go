// Package core contains the domain types for tracked companies and their
// per-period financial statements.
//
// This file implements reporting-period keys: parsing, formatting, ordering
// and the "same period one year earlier" derivation used for Y/Y math.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

type PeriodType string

const (
	Quarterly PeriodType = "quarterly"
	Annual    PeriodType = "annual"
)

// Valid reports whether pt is one of the supported reporting cadences.
func (pt PeriodType) Valid() bool {
	return pt == Quarterly || pt == Annual
}

// Period is a single reporting period. Quarter is 1-4 for quarterly periods
// and 0 for annual ones.
type Period struct {
	Type    PeriodType
	Year    int
	Quarter int
}

// quarterMonths maps a quarter to the month its reporting label carries.
// The mapping is lossy: three months collapse onto each quarter on the way
// back through monthQuarters.
var quarterMonths = map[int]string{
	1: "Jan",
	2: "Apr",
	3: "Jul",
	4: "Oct",
}

var monthQuarters = map[string]int{
	"Jan": 1, "Feb": 1, "Mar": 1,
	"Apr": 2, "May": 2, "Jun": 2,
	"Jul": 3, "Aug": 3, "Sep": 3,
	"Oct": 4, "Nov": 4, "Dec": 4,
}

// ParsePeriod parses a canonical ISO key, either "YYYY" (annual) or
// "YYYY-Qn" with n in 1..4 (quarterly). Anything else fails with
// ErrInvalidPeriod.
func ParsePeriod(iso string) (Period, error) {
	year, quarter, found := strings.Cut(iso, "-Q")
	y, err := parseYear(year)
	if err != nil {
		return Period{}, err
	}
	if !found {
		return Period{Type: Annual, Year: y}, nil
	}
	q, err := strconv.Atoi(quarter)
	if err != nil || q < 1 || q > 4 {
		return Period{}, fmt.Errorf("%w: bad quarter in %q", ErrInvalidPeriod, iso)
	}
	return Period{Type: Quarterly, Year: y, Quarter: q}, nil
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: bad year %q", ErrInvalidPeriod, s)
	}
	y, err := strconv.Atoi(s)
	if err != nil || y <= 0 {
		return 0, fmt.Errorf("%w: bad year %q", ErrInvalidPeriod, s)
	}
	return y, nil
}

// ISO returns the canonical sortable key, e.g. "2025-Q3" or "2025".
// Lexicographic order of ISO keys of the same period type equals period
// order, which is what lets the store sort on the raw column.
func (p Period) ISO() string {
	if p.Type == Quarterly {
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	}
	return fmt.Sprintf("%04d", p.Year)
}

// PriorYear returns the same period one year earlier. It is total: every
// valid period has one.
func (p Period) PriorYear() Period {
	p.Year--
	return p
}

// NextYear is the inverse of PriorYear.
func (p Period) NextYear() Period {
	p.Year++
	return p
}

// Label renders the human form: "Jul 2025" for 2025-Q3, "2025" for annual.
func (p Period) Label() string {
	if p.Type == Quarterly {
		return fmt.Sprintf("%s %d", quarterMonths[p.Quarter], p.Year)
	}
	return strconv.Itoa(p.Year)
}

// ComparePeriods orders two periods: by year ascending, then by quarter.
// An annual period sorts before any quarter of the same year.
func ComparePeriods(a, b Period) int {
	switch {
	case a.Year != b.Year:
		if a.Year < b.Year {
			return -1
		}
		return 1
	case a.Quarter != b.Quarter:
		if a.Quarter < b.Quarter {
			return -1
		}
		return 1
	}
	return 0
}

// CompareISO orders two raw ISO keys using ComparePeriods. Keys that fail to
// parse sort after valid ones, tied among themselves by plain string order,
// so a malformed key can never scramble the valid part of an axis.
func CompareISO(a, b string) int {
	pa, errA := ParsePeriod(a)
	pb, errB := ParsePeriod(b)
	switch {
	case errA == nil && errB == nil:
		return ComparePeriods(pa, pb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// LabelToISO converts a display label back to an ISO key. Annual labels are
// already the year. Quarterly labels must look like "Mon YYYY"; anything the
// month table does not recognise is returned unchanged, matching the lenient
// behaviour the data-entry flow relies on. Strict parsing is ParsePeriod.
func LabelToISO(label string, pt PeriodType) string {
	if pt == Annual {
		return label
	}
	month, year, found := strings.Cut(label, " ")
	if !found {
		return label
	}
	q, ok := monthQuarters[month]
	if !ok {
		return label
	}
	if _, err := parseYear(year); err != nil {
		return label
	}
	return fmt.Sprintf("%s-Q%d", year, q)
}
