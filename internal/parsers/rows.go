// Package parsers turns raw payment-export text into ordered transaction
// rows.
//
// Exports arrive as CSV-like text with no guaranteed column order, optional
// header rows, quoted fields and the occasional malformed trailing line.
// The parser degrades by omission: single bad rows are dropped and counted,
// and only a file that yields zero valid rows fails the whole operation.
package parsers

import (
	"fmt"
	"strings"

	"partner-revenue-service/internal/models"
	"partner-revenue-service/pkg/errors"
	"partner-revenue-service/pkg/logger"
)

// Row is one parsed export line as raw string fields, reordered into
// (date, merchant, amount) regardless of the column order in the file.
type Row struct {
	Date     string
	Merchant string
	Amount   string
}

// ParseStats holds statistics about a parsing operation.
type ParseStats struct {
	TotalLines  int
	HeaderLines int
	RowsParsed  int
	RowsSkipped int
}

// String returns a human-readable summary of parsing statistics.
func (ps *ParseStats) String() string {
	return fmt.Sprintf("parsed %d rows from %d lines (%d skipped)",
		ps.RowsParsed, ps.TotalLines, ps.RowsSkipped)
}

// RowParser parses raw export content into ordered rows.
type RowParser struct {
	logger logger.Logger
}

// NewRowParser creates a new RowParser.
func NewRowParser() *RowParser {
	return &RowParser{
		logger: logger.GetGlobalLogger().WithComponent("row_parser"),
	}
}

// ParseRows parses the full content of an uploaded export. It never fails on
// a single bad row; it fails only when no valid rows remain.
func (rp *RowParser) ParseRows(content string) ([]Row, *ParseStats, error) {
	stats := &ParseStats{}
	var rows []Row

	for _, line := range splitLines(content) {
		stats.TotalLines++

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if isHeaderLine(trimmed) {
			stats.HeaderLines++
			continue
		}

		fields := splitQuoted(trimmed)
		if len(fields) < 3 {
			stats.RowsSkipped++
			continue
		}

		row, ok := assignColumns(fields)
		if !ok {
			stats.RowsSkipped++
			continue
		}

		rows = append(rows, row)
		stats.RowsParsed++
	}

	rp.logger.WithFields(logger.Fields{
		"total_lines":  stats.TotalLines,
		"rows_parsed":  stats.RowsParsed,
		"rows_skipped": stats.RowsSkipped,
	}).Debug("Parsed export content")

	if len(rows) == 0 {
		return nil, stats, errors.ParseError(errors.CodeNoValidRows, "", nil).
			WithContext("total_lines", stats.TotalLines)
	}

	return rows, stats, nil
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// isHeaderLine reports whether a line looks like a column header rather than
// data. Exports are inconsistent about including one.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "date") && strings.Contains(lower, "merchant")
}

// splitQuoted splits a line on commas with quote awareness: a double quote
// toggles the in-quotes state, a doubled "" inside quotes is an escaped
// literal quote, and commas inside quotes do not separate fields.
// Surrounding quotes are stripped from each field.
func splitQuoted(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))

	return fields
}

// assignColumns locates the date column among the first three fields and
// reassigns (date, merchant, amount) accordingly. Rows without a
// recognisable date column are rejected.
func assignColumns(fields []string) (Row, bool) {
	dateIdx := -1
	for i := 0; i < 3; i++ {
		if models.LooksLikeRowDate(fields[i]) {
			dateIdx = i
			break
		}
	}
	if dateIdx == -1 {
		return Row{}, false
	}

	var rest []string
	for i := 0; i < 3; i++ {
		if i != dateIdx {
			rest = append(rest, fields[i])
		}
	}

	// The swap fires only when exactly one of the two fields parses as an
	// amount. When both parse (a purely numeric merchant descriptor such
	// as "118118") the order is genuinely ambiguous and the declared
	// (merchant, amount) order is kept.
	merchant, amount := rest[0], rest[1]
	if looksLikeAmount(rest[0]) && !looksLikeAmount(rest[1]) {
		merchant, amount = rest[1], rest[0]
	}

	return Row{
		Date:     strings.TrimSpace(fields[dateIdx]),
		Merchant: merchant,
		Amount:   amount,
	}, true
}

// looksLikeAmount reports whether a field parses as an export amount. Used
// only to disambiguate the merchant and amount columns once the date column
// is known.
func looksLikeAmount(s string) bool {
	_, err := models.ParseAmount(s)
	return err == nil
}
