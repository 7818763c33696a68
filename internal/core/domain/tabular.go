package domain

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// expiryHeaders are the column headings recognised as holding the
// document's expiry value, matched case-insensitively.
var expiryHeaders = []string{
	"expiry date",
	"expiry",
	"expiration date",
	"expiration",
	"expires",
	"valid until",
}

// ExtractExpiryCell locates the expiry cell in CSV content: the first
// non-empty value beneath a recognised expiry column heading. Returns
// false when no such column or value exists, or the content is not
// parseable as CSV. Malformed rows are tolerated.
func ExtractExpiryCell(data []byte) (string, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return "", false
	}

	col := -1
	for i, h := range header {
		if IsExpiryHeader(h) {
			col = i
			break
		}
	}
	if col < 0 {
		return "", false
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return "", false
		}
		if err != nil {
			continue
		}
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				return v, true
			}
		}
	}
}

// IsExpiryHeader reports whether a column heading names the expiry
// column. Workbook and CSV extraction share this predicate.
func IsExpiryHeader(h string) bool {
	h = strings.ToLower(strings.TrimSpace(h))
	for _, want := range expiryHeaders {
		if h == want {
			return true
		}
	}
	return false
}
