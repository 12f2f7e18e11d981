// Package merchant derives display names for merchants from statement text and
// maps names to shared merchant records.
package merchant

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RefineFunc turns a transaction's full description into a merchant display name.
// It returns "" when nothing usable remains.
type RefineFunc func(fullDescription string) string

const maxNameLength = 50

type knownMerchant struct {
	pattern *regexp.Regexp
	name    string
}

// Checked in order, so longer names that contain shorter ones come first.
var knownMerchants = compileKnown([][2]string{
	{"amazon prime", "Amazon Prime"},
	{"amzn mktp", "Amazon"},
	{"amazon", "Amazon"},
	{"uber eats", "Uber Eats"},
	{"uber", "Uber"},
	{"lyft", "Lyft"},
	{"doordash", "DoorDash"},
	{"grubhub", "Grubhub"},
	{"starbucks", "Starbucks"},
	{"mcdonalds", "McDonald's"},
	{"mcdonald's", "McDonald's"},
	{"chipotle", "Chipotle"},
	{"whole foods", "Whole Foods"},
	{"trader joe", "Trader Joe's"},
	{"wegmans", "Wegmans"},
	{"costco", "Costco"},
	{"walmart", "Walmart"},
	{"target", "Target"},
	{"home depot", "Home Depot"},
	{"walgreens", "Walgreens"},
	{"cvs", "CVS Pharmacy"},
	{"netflix", "Netflix"},
	{"spotify", "Spotify"},
	{"hulu", "Hulu"},
	{"apple.com/bill", "Apple"},
	{"google", "Google"},
	{"shell oil", "Shell"},
	{"chevron", "Chevron"},
	{"exxon", "Exxon"},
	{"verizon", "Verizon"},
	{"comcast", "Comcast"},
	{"t-mobile", "T-Mobile"},
	{"airbnb", "Airbnb"},
	{"expedia", "Expedia"},
	{"delta air", "Delta Air Lines"},
	{"united airlines", "United Airlines"},
})

var (
	authorizedPrefix = regexp.MustCompile(`(?i)^(?:PURCHASE|RECURRING PAYMENT|PAYMENT)\s+AUTHORIZED\s+ON\s+\d{2}/\d{2}\s+`)
	processorPrefix  = regexp.MustCompile(`(?i)^(?:POS|DBCRD|DEBIT|CHECKCARD|VISA|DDA|PUR)\s+`)
	aggregatorPrefix = regexp.MustCompile(`(?i)^(?:SQ|TST|PAYPAL|SP)\s*\*\s*`)
	referenceSuffix  = regexp.MustCompile(`\*[A-Za-z0-9]+\b`)
	domainSuffix     = regexp.MustCompile(`(?i)\.(?:com|net|org)\b`)
	storeNumber      = regexp.MustCompile(`\s#?\d{3,}\b.*$`)
	trailingState    = regexp.MustCompile(`\s+[A-Z]{2}$`)
	specialChars     = regexp.MustCompile(`[*#]+`)
)

func compileKnown(pairs [][2]string) []knownMerchant {
	known := make([]knownMerchant, 0, len(pairs))
	for _, p := range pairs {
		known = append(known, knownMerchant{
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`),
			name:    p[1],
		})
	}
	return known
}

// RefineName is the default RefineFunc. It strips card-processor noise (authorization
// prefixes, reference codes, store numbers, state codes), maps well-known merchants to
// their canonical names, and title-cases whatever is left.
func RefineName(fullDescription string) string {
	s := strings.TrimSpace(fullDescription)
	if s == "" {
		return ""
	}

	s = authorizedPrefix.ReplaceAllString(s, "")
	for processorPrefix.MatchString(s) {
		s = processorPrefix.ReplaceAllString(s, "")
	}
	s = aggregatorPrefix.ReplaceAllString(s, "")

	for _, k := range knownMerchants {
		if k.pattern.MatchString(s) {
			return k.name
		}
	}

	s = referenceSuffix.ReplaceAllString(s, "")
	s = domainSuffix.ReplaceAllString(s, "")
	s = storeNumber.ReplaceAllString(s, "")
	if len(strings.Fields(s)) > 1 {
		s = trailingState.ReplaceAllString(s, "")
	}
	s = specialChars.ReplaceAllString(s, " ")

	return titleCase(s)
}

func titleCase(s string) string {
	caser := cases.Title(language.English)
	words := strings.Fields(s)
	for i, word := range words {
		if utf8.RuneCountInString(word) > 2 {
			words[i] = caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	result := strings.Join(words, " ")
	if utf8.RuneCountInString(result) > maxNameLength {
		result = strings.TrimSpace(string([]rune(result)[:maxNameLength]))
	}
	return result
}
