package parser

import (
	"regexp"
	"strconv"
	"time"
)

// Period is the billing period declared on a statement
type Period struct {
	Start time.Time
	End   time.Time
}

var (
	// "Opening/Closing Date 02/13/24 - 03/12/24" or just "02/13/24 - 03/12/24"
	numericPeriodPattern = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{2})\s*-\s*(\d{2})/(\d{2})/(\d{2})`)

	// "December 14 - January 13, 2025"
	namedPeriodPattern = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})\s*-\s*(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),\s*(\d{4})`)
)

// ExtractPeriod scans lines for a billing-period declaration. The first matching line wins.
func ExtractPeriod(lines []string) (Period, bool) {
	for _, line := range lines {
		if p, ok := matchNumericPeriod(line); ok {
			return p, true
		}
		if p, ok := matchNamedPeriod(line); ok {
			return p, true
		}
	}
	return Period{}, false
}

func matchNumericPeriod(line string) (Period, bool) {
	m := numericPeriodPattern.FindStringSubmatch(line)
	if m == nil {
		return Period{}, false
	}
	n := make([]int, 6)
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	if !validMonthDay(n[0], n[1]) || !validMonthDay(n[3], n[4]) {
		return Period{}, false
	}
	return Period{
		Start: civilDate(2000+n[2], n[0], n[1]),
		End:   civilDate(2000+n[5], n[3], n[4]),
	}, true
}

func matchNamedPeriod(line string) (Period, bool) {
	m := namedPeriodPattern.FindStringSubmatch(line)
	if m == nil {
		return Period{}, false
	}
	startMonth, ok1 := monthFromName(m[1])
	endMonth, ok2 := monthFromName(m[3])
	if !ok1 || !ok2 {
		return Period{}, false
	}
	startDay, _ := strconv.Atoi(m[2])
	endDay, _ := strconv.Atoi(m[4])
	endYear, _ := strconv.Atoi(m[5])

	// Statement spans the year boundary
	startYear := endYear
	if startMonth == time.December && endMonth == time.January {
		startYear = endYear - 1
	}
	return Period{
		Start: civilDate(startYear, int(startMonth), startDay),
		End:   civilDate(endYear, int(endMonth), endDay),
	}, true
}

func civilDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// YearMapper resolves the year of a month/day-only transaction date.
type YearMapper func(month time.Month) int

// NewYearMapper builds the year mapping for a statement whose period ends on end.
// Months after the end month belong to the previous year.
func NewYearMapper(end time.Time) YearMapper {
	endYear, endMonth := end.Year(), end.Month()
	return func(month time.Month) int {
		if month == time.December && endMonth == time.January {
			return endYear - 1
		}
		if month > endMonth {
			return endYear - 1
		}
		return endYear
	}
}

// CurrentYearMapper assigns every date to now's calendar year.
func CurrentYearMapper(now time.Time) YearMapper {
	year := now.Year()
	return func(time.Month) int { return year }
}

// YearMapperFor extracts the statement period from lines and builds the matching mapper,
// falling back to the current year when no period is declared.
func YearMapperFor(lines []string, now time.Time) (YearMapper, *Period) {
	p, ok := ExtractPeriod(lines)
	if !ok {
		return CurrentYearMapper(now), nil
	}
	return NewYearMapper(p.End), &p
}
