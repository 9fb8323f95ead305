// Package sheet talks to the spreadsheet-backed remote store: it
// decodes the published CSV export into history records and appends
// confirmed records through the deployed script endpoint.
package sheet

import (
	"strings"

	"logautofill/internal/record"
)

// decode.go is a best-effort CSV reader for the history export.
//
// The export is machine-generated and well-behaved, so this is a
// line-oriented scan rather than a full quoted-CSV grammar: escaped
// quotes inside a quoted field and multi-line quoted fields are not
// handled. That is an accepted limitation of the history-import path,
// not a defect to fix with a stricter parser.

// Decode parses delimited text into rows of fields.
//
// Lines split on \n with an optional preceding \r. Whitespace-only
// lines are dropped entirely, never emitted as empty rows. Within a
// line, a comma splits fields only when it is preceded by an even
// number of quote characters, so a comma inside a quoted field stays
// put. One surrounding quote pair is stripped per field and the result
// is trimmed. Deterministic: the same text always yields the same rows.
func Decode(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitLine(line))
	}
	return rows
}

// splitLine splits on commas outside quoted regions.
func splitLine(line string) []string {
	var fields []string
	var quotes int
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			quotes++
		case ',':
			if quotes%2 == 0 {
				fields = append(fields, cleanField(line[start:i]))
				start = i + 1
			}
		}
	}
	fields = append(fields, cleanField(line[start:]))
	return fields
}

// cleanField strips one leading and one trailing quote, then trims
// surrounding whitespace.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

// Export columns, in order.
const (
	colScNo = iota
	colDtrCode
	colFeederName
	colLocation
	colTimestamp
)

// cloudTimestamp stands in when the export row has no timestamp column.
const cloudTimestamp = "Cloud"

// DecodeRecords converts the export text into synced history records.
// The first row is the header and is skipped. Rows with neither a
// service connection number nor a transformer code are dropped. The
// result is newest-first (the store appends at the bottom). Every call
// regenerates the records wholesale with fresh ids; prior history is
// replaced, never merged.
func DecodeRecords(text string) []record.LogRecord {
	rows := Decode(text)
	if len(rows) <= 1 {
		return nil
	}

	recs := make([]record.LogRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := record.LogRecord{
			ID:         record.NewID("sheet"),
			ScNo:       cell(row, colScNo),
			DtrCode:    cell(row, colDtrCode),
			FeederName: cell(row, colFeederName),
			Location:   cell(row, colLocation),
			Timestamp:  cell(row, colTimestamp),
			SyncStatus: record.StatusSynced,
		}
		if r.ScNo == "" && r.DtrCode == "" {
			continue
		}
		if r.Timestamp == "" {
			r.Timestamp = cloudTimestamp
		}
		recs = append(recs, r)
	}

	// Reverse so the most recent appends come first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
