package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"logautofill/internal/record"
)

// extractedRow is the model's answer shape for one paper row.
type extractedRow struct {
	ScNo       string `json:"scNo"`
	DtrCode    string `json:"dtrCode"`
	FeederName string `json:"feederName"`
	Location   string `json:"location"`
}

// ParseRows turns the model's JSON answer into draft records, one per
// detected row, each confidence-tagged. Code fences are tolerated even
// though the prompt forbids them; an empty array counts as no data.
func ParseRows(text string) ([]record.LogRecord, error) {
	text = stripCodeFences(text)

	var rows []extractedRow
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("extraction produced no data: unparseable model output: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("extraction produced no data: model found no rows")
	}

	recs := make([]record.LogRecord, len(rows))
	for i, row := range rows {
		recs[i] = record.TagConfidence(record.LogRecord{
			ID:         record.NewID("ext"),
			ScNo:       strings.TrimSpace(row.ScNo),
			DtrCode:    strings.TrimSpace(row.DtrCode),
			FeederName: strings.TrimSpace(row.FeederName),
			Location:   strings.TrimSpace(row.Location),
			SyncStatus: record.StatusDraft,
		})
	}
	return recs, nil
}

// stripCodeFences removes a surrounding markdown fence, if any.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
