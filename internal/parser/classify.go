package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"spendbook/internal/models"
)

var (
	// "03/15 AMAZON.COM*AB12C -45.67"
	singleLinePattern = regexp.MustCompile(`^(\d{2})/(\d{2})\s+(.+?)\s+(` + amountPattern + `)$`)

	// "03/15 03/17 PURCHASE AUTHORIZED ON 03/13 STARBUCKS" followed by a line holding only the amount
	twoLinePrefixPattern = regexp.MustCompile(`^\d{2}/\d{2}\s+\d{2}/\d{2}\s`)
	twoLineFirstPattern  = regexp.MustCompile(`^(\d{2})/(\d{2})\s+(\d{2})/(\d{2})\s+(.+)$`)
	amountOnlyPattern    = regexp.MustCompile(`^` + amountPattern + `$`)
)

// ClassifySingleLine parses a line carrying date, description and amount.
func ClassifySingleLine(line string, years YearMapper) (models.RawTransaction, bool) {
	m := singleLinePattern.FindStringSubmatch(line)
	if m == nil {
		return models.RawTransaction{}, false
	}
	posted, ok := resolveDate(m[1], m[2], years)
	if !ok {
		return models.RawTransaction{}, false
	}
	amount, err := ParseAmount(m[4])
	if err != nil {
		return models.RawTransaction{}, false
	}
	return models.RawTransaction{
		PostedDate: posted,
		Merchant:   strings.TrimSpace(m[3]),
		Amount:     amount,
	}, true
}

// HasTwoLinePrefix reports whether line starts with the dual-date prefix of the two-line dialect.
func HasTwoLinePrefix(line string) bool {
	return twoLinePrefixPattern.MatchString(line)
}

// ClassifyTwoLine parses a transaction whose dates and description are on first and whose
// amount stands alone on second. Both lines are consumed on success.
func ClassifyTwoLine(first, second string, years YearMapper) (models.RawTransaction, bool) {
	m := twoLineFirstPattern.FindStringSubmatch(first)
	if m == nil {
		return models.RawTransaction{}, false
	}
	second = strings.TrimSpace(second)
	if !amountOnlyPattern.MatchString(second) {
		return models.RawTransaction{}, false
	}
	transacted, ok := resolveDate(m[1], m[2], years)
	if !ok {
		return models.RawTransaction{}, false
	}
	posted, ok := resolveDate(m[3], m[4], years)
	if !ok {
		return models.RawTransaction{}, false
	}
	amount, err := ParseAmount(second)
	if err != nil {
		return models.RawTransaction{}, false
	}
	return models.RawTransaction{
		TransactionDate: transacted,
		PostedDate:      posted,
		Merchant:        strings.TrimSpace(m[5]),
		Amount:          amount,
	}, true
}

// resolveDate turns captured MM and DD into YYYY-MM-DD using the statement's year mapping
func resolveDate(mm, dd string, years YearMapper) (string, bool) {
	month, _ := strconv.Atoi(mm)
	day, _ := strconv.Atoi(dd)
	if !validMonthDay(month, day) {
		return "", false
	}
	return FormatDate(years(time.Month(month)), month, day), true
}
