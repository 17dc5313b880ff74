package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// numberRegexp captures the first numeric value in a string, e.g. "45.5" out of "45.5 m2"
	numberRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	// intRegexp captures the first run of digits, e.g. "3" out of "3 / winda"
	intRegexp = regexp.MustCompile(`\d+`)
	// daysAgoRegexp matches Polish relative dates like "3 dni temu"
	daysAgoRegexp = regexp.MustCompile(`(\d+)\s*dni?\s*temu`)
)

// placeholder tokens that some source exports use instead of an empty cell
var absentTokens = map[string]struct{}{
	"none":           {},
	"null":           {},
	"zapytaj o cenę": {},
}

// cleanString trims whitespace and returns nil for empty values.
func cleanString(raw string) *string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func isAbsent(cleaned string) bool {
	_, ok := absentTokens[strings.ToLower(cleaned)]
	return ok
}

// parseInt parses an integer, tolerating embedded spaces used as thousands
// separators ("1 200"). Returns nil on empty or unparsable input.
func parseInt(raw string) *int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || isAbsent(trimmed) {
		return nil
	}
	cleaned := stripSpaces(trimmed)
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &n
}

// parseDecimal parses a decimal value, tolerating spaces as thousands
// separators, "," as the decimal point and trailing currency/unit suffixes
// ("45,5 m2", "860 000 zł"). Returns nil on unparsable input.
func parseDecimal(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || isAbsent(trimmed) {
		return nil
	}
	cleaned := stripSpaces(trimmed)
	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			// "1,200.50" — comma is a thousands separator
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	}
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return nil
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return nil
	}
	return &d
}

// parseBool maps the source's truthy/falsy tokens (Polish and English) to a
// boolean. Unrecognized tokens are nil.
func parseBool(raw string) *bool {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	var v bool
	switch cleaned {
	case "tak", "yes", "true", "1", "t":
		v = true
	case "nie", "no", "false", "0", "f":
		v = false
	default:
		return nil
	}
	return &v
}

// parseFloor parses floor designations: "parter" (ground floor) is 0,
// otherwise the first embedded number wins ("3 / winda" is 3).
func parseFloor(raw string) *int {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil
	}
	if cleaned == "parter" {
		zero := 0
		return &zero
	}
	match := intRegexp.FindString(cleaned)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}

// dateFormats are the absolute formats seen in source exports, tried in order.
var dateFormats = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
}

// parseDate parses a posting date. The sources mix relative Polish phrases
// ("wczoraj", "3 dni temu") with absolute dates in several formats. Relative
// dates are resolved against now. Returns nil if nothing matches.
func parseDate(raw string, now time.Time) *time.Time {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case strings.Contains(cleaned, "wczoraj"), strings.Contains(cleaned, "yesterday"):
		return datePtr(today.AddDate(0, 0, -1))
	case strings.Contains(cleaned, "dzisiaj"), strings.Contains(cleaned, "today"):
		return datePtr(today)
	case strings.Contains(cleaned, "ponad tydzień"), strings.Contains(cleaned, "over a week"):
		return datePtr(today.AddDate(0, 0, -8))
	case strings.Contains(cleaned, "tydzień"), strings.Contains(cleaned, "week"):
		return datePtr(today.AddDate(0, 0, -7))
	}

	if m := daysAgoRegexp.FindStringSubmatch(cleaned); len(m) >= 2 {
		days, err := strconv.Atoi(m[1])
		if err == nil {
			return datePtr(today.AddDate(0, 0, -days))
		}
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return &t
		}
	}
	return nil
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func stripSpaces(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return strings.ReplaceAll(cleaned, " ", "")
}
