// Package record defines the log record model shared by every layer:
// the record shape, confidence tagging, submission validation, and the
// review batch that holds not-yet-submitted records during correction.
// This package has no I/O dependencies and can be used by any frontend.
package record

import (
	"strings"

	"github.com/google/uuid"
)

// UncertainChar marks a position where handwriting extraction could not
// determine the digit or character.
const UncertainChar = "?"

// Placeholder is substituted for empty optional fields at submission time.
const Placeholder = "N/A"

// SyncStatus tracks where a record is in its lifecycle.
type SyncStatus string

const (
	// StatusDraft is a freshly extracted, unsubmitted record.
	StatusDraft SyncStatus = "draft"
	// StatusPending is a manually entered record submitted but not yet
	// confirmed by a history refresh.
	StatusPending SyncStatus = "pending"
	// StatusSynced is a record decoded from the remote store's export.
	// Synced records are never locally authored.
	StatusSynced SyncStatus = "synced"
)

// Confidence tags extraction quality for a record.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Field identifies one of the editable record fields.
type Field string

const (
	FieldScNo       Field = "scNo"
	FieldDtrCode    Field = "dtrCode"
	FieldFeederName Field = "feederName"
	FieldLocation   Field = "location"
)

// ParseField validates a field name from an external request.
func ParseField(s string) (Field, bool) {
	switch Field(s) {
	case FieldScNo, FieldDtrCode, FieldFeederName, FieldLocation:
		return Field(s), true
	}
	return "", false
}

// LogRecord is the unit of data: one row of an equipment log.
type LogRecord struct {
	ID         string     `json:"id"`
	ScNo       string     `json:"scNo"`
	DtrCode    string     `json:"dtrCode"`
	FeederName string     `json:"feederName"`
	Location   string     `json:"location"`
	Confidence Confidence `json:"confidence,omitempty"`
	SyncStatus SyncStatus `json:"syncStatus,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
}

// NewID returns a fresh record identifier. The prefix names the record's
// origin ("ext", "manual", "sheet"); the uuid keeps ids unique within a
// session so they are never reused after deletion.
func NewID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

// Get returns the value of the named field.
func (r LogRecord) Get(f Field) string {
	switch f {
	case FieldScNo:
		return r.ScNo
	case FieldDtrCode:
		return r.DtrCode
	case FieldFeederName:
		return r.FeederName
	case FieldLocation:
		return r.Location
	}
	return ""
}

// Set returns a copy of the record with the named field replaced.
func (r LogRecord) Set(f Field, value string) LogRecord {
	switch f {
	case FieldScNo:
		r.ScNo = value
	case FieldDtrCode:
		r.DtrCode = value
	case FieldFeederName:
		r.FeederName = value
	case FieldLocation:
		r.Location = value
	}
	return r
}

// Matches reports whether any text field contains the query.
// The query must already be lower-cased and trimmed.
func (r LogRecord) Matches(q string) bool {
	return strings.Contains(strings.ToLower(r.ScNo), q) ||
		strings.Contains(strings.ToLower(r.DtrCode), q) ||
		strings.Contains(strings.ToLower(r.FeederName), q) ||
		strings.Contains(strings.ToLower(r.Location), q)
}
