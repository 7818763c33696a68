package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWarningWindow is how far ahead of expiry a document is flagged
// with AlertWarning.
const DefaultWarningWindow = 30 * 24 * time.Hour

// serialEpochOffset is the day count between the spreadsheet serial
// epoch (1899-12-30) and the Unix epoch (1970-01-01). Numeric cell
// values are day serials relative to the spreadsheet epoch.
const serialEpochOffset = 25569

// DefaultDateFormats is the ordered cascade tried against string cell
// values. Day-first variants come before ISO; the first match wins.
// The list is a configuration value so each format stays independently
// testable.
var DefaultDateFormats = []string{
	"02/01/2006",
	"02/01/06",
	"02-01-2006",
	"02-01-06",
	"02.01.2006",
	"02.01.06",
	"2006-01-02",
}

// ExpiryAssessment is the outcome of analysing an expiry cell value.
type ExpiryAssessment struct {
	// Status is the derived alert classification.
	Status AlertStatus

	// ExpiryDate is the extracted date, nil when none could be derived.
	ExpiryDate *time.Time
}

// AnalyzeExpiry derives an expiry assessment from a single cell-like
// value read out of a tabular document. The value may be a string, a
// number (spreadsheet day serial) or a time. Unparseable values yield
// {AlertNone, nil} rather than an error.
//
// The function is pure: deterministic given the value, now and window.
func AnalyzeExpiry(value any, now time.Time, warningWindow time.Duration, formats []string) ExpiryAssessment {
	if warningWindow <= 0 {
		warningWindow = DefaultWarningWindow
	}
	if len(formats) == 0 {
		formats = DefaultDateFormats
	}

	var expiry *time.Time

	switch v := value.(type) {
	case nil:
		return ExpiryAssessment{Status: AlertNone}
	case time.Time:
		d := utcMidnight(v)
		expiry = &d
	case float64:
		d := serialToDate(v)
		expiry = &d
	case int:
		d := serialToDate(float64(v))
		expiry = &d
	case int64:
		d := serialToDate(float64(v))
		expiry = &d
	case string:
		// Unformatted sheet exports render date cells as their raw day
		// serial, so a pure-numeric cell is a serial, not a date string.
		if serial, ok := parseSerialString(v); ok {
			d := serialToDate(serial)
			expiry = &d
		} else {
			expiry = parseDateString(v, formats)
		}
	}

	if expiry == nil {
		return ExpiryAssessment{Status: AlertNone}
	}

	return ExpiryAssessment{
		Status:     ClassifyExpiry(*expiry, now, warningWindow),
		ExpiryDate: expiry,
	}
}

// ClassifyExpiry computes the alert status for an expiry date at a
// given instant: past dates are expired, dates within the warning
// window are warnings, everything else is none.
func ClassifyExpiry(expiry, now time.Time, warningWindow time.Duration) AlertStatus {
	now = now.UTC()
	switch {
	case expiry.Before(now):
		return AlertExpired
	case expiry.Sub(now) <= warningWindow:
		return AlertWarning
	default:
		return AlertNone
	}
}

// parseDateString tries the format cascade, then a generic RFC 3339
// parse as a last resort. Returns nil for unparseable strings.
func parseDateString(s string, formats []string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			d := utcMidnight(t)
			return &d
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := utcMidnight(t)
		return &d
	}

	return nil
}

// parseSerialString reads a cell value as a day serial. Only positive
// plain numbers qualify; anything with separators falls through to the
// date format cascade.
func parseSerialString(s string) (float64, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 {
		return 0, false
	}
	return serial, true
}

// serialToDate converts a spreadsheet day serial to a UTC date.
func serialToDate(serial float64) time.Time {
	days := int(serial) - serialEpochOffset
	return time.Unix(0, 0).UTC().AddDate(0, 0, days)
}

// utcMidnight normalises a time to midnight UTC of the same calendar day.
func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
