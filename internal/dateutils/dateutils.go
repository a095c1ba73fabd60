// Package dateutils provides the day-first date handling of GnuCash exports
// and the ISO rendering used by the ledger.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts understood by the parser.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutSlash    = "02/01/2006"
	DateLayoutDash     = "02-01-2006"
	DateLayoutShort    = "2.1.2006"
)

// DayFirstFormats are tried in order when no explicit layout is configured.
// US month-first dates are deliberately absent: "05/06/2024" is always the 5th of June.
var DayFirstFormats = []string{
	DateLayoutEuropean,
	DateLayoutSlash,
	DateLayoutDash,
	DateLayoutShort,
	DateLayoutISO,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ParseDate parses a day-first date string. When layout is empty every entry
// of DayFirstFormats is tried. It returns the date and the layout that matched.
func ParseDate(dateStr, layout string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}

	formats := DayFirstFormats
	if layout != "" {
		formats = []string{layout}
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// CleanDateString trims the value and drops a trailing time of day
// ("06.05.2024 00:00" becomes "06.05.2024").
func CleanDateString(dateStr string) string {
	dateStr = whitespaceRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
	if i := strings.IndexByte(dateStr, ' '); i > 0 && strings.Contains(dateStr[i:], ":") {
		dateStr = dateStr[:i]
	}
	return dateStr
}
