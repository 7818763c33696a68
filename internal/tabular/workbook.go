// Package tabular reads expiry cells out of OOXML workbooks. CSV
// content is scanned by the domain package directly; binary workbooks
// need a real reader so numeric and date cells arrive typed instead of
// pre-formatted.
package tabular

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/veritrail/regsync/internal/core/domain"
)

// WorkbookExpiryCell locates the expiry cell in an xlsx workbook: the
// first non-empty value beneath a recognised expiry heading, searched
// sheet by sheet. Numeric cells come back as float64 day serials -
// dates included, since xlsx stores dates as serials under a number
// format. Everything else comes back as the cell's string value.
// Returns false when the content is not a readable workbook or no
// expiry cell exists.
func WorkbookExpiryCell(data []byte) (any, bool) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer wb.Close() //nolint:errcheck

	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}

		col := -1
		for i, h := range rows[0] {
			if domain.IsExpiryHeader(h) {
				col = i
				break
			}
		}
		if col < 0 {
			continue
		}

		for i, row := range rows[1:] {
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				continue
			}
			// Rows are 1-based and the header occupies row 1.
			if value, ok := typedCell(wb, sheet, col+1, i+2); ok {
				return value, true
			}
		}
	}

	return nil, false
}

// typedCell reads a cell's raw value: stored serials for numeric and
// date cells, the shared string otherwise.
func typedCell(wb *excelize.File, sheet string, col, row int) (any, bool) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, false
	}

	raw, err := wb.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return serial, true
	}
	return raw, true
}
