// Package gradeimport implements the Canvas grade-sheet import pipeline:
// parse a raw CSV export, classify its columns, fuzzy-match assignment
// columns to existing assignments, diff the imported values against stored
// progress and apply an approved change-set with per-item failure isolation.
//
// The package is pure: callers supply the assignment list, the student
// roster and the stored progress values, and persist the approved changes
// through the Writer interface.
package gradeimport

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedInput fails the whole parse; nothing is partially returned.
var ErrMalformedInput = errors.New("malformed grade sheet: need a header row and at least one data row")

const delimiter = ','

type (
	// Row maps a column name to the raw (trimmed) cell value; transient,
	// exists only during an import run.
	Row map[string]string

	Sheet struct {
		Header []string
		Rows   []Row
	}
)

// ParseSheet tokenizes a raw grade-sheet export. Both CRLF and LF line
// endings are accepted and blank lines are skipped. Rows shorter than the
// header are padded with empty fields; extra trailing fields are dropped.
func ParseSheet(raw string) (*Sheet, error) {
	lines := splitLines(raw)
	if len(lines) < 2 {
		return nil, ErrMalformedInput
	}

	header := parseLine(lines[0])
	if len(header) == 0 {
		return nil, ErrMalformedInput
	}

	sheet := &Sheet{
		Header: header,
		Rows:   make([]Row, 0, len(lines)-1),
	}
	for _, line := range lines[1:] {
		fields := parseLine(line)
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseLine scans left to right with a quote-toggle state: a `"` flips
// in/out of quoted mode, `""` inside quoted mode is an escaped literal
// quote, and the delimiter only ends a field outside quoted mode.
// Fields are trimmed of surrounding whitespace.
func parseLine(line string) []string {
	var (
		fields []string
		field  strings.Builder
		quoted bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				quoted = !quoted
			}
		case ch == delimiter && !quoted:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))
	return fields
}
