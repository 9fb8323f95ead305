package record

// validate.go provides confidence tagging and the submission gate.
//
// The system deliberately accepts partially uncertain OCR output (marked
// with "?") rather than rejecting it: the review table is the correction
// point. Only the service connection number is gated before any network
// submission.

import (
	"fmt"
	"strings"
)

// ValidationError reports a submission-blocking problem with a record.
type ValidationError struct {
	Field   Field  // Field that failed
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// TagConfidence returns the record with its confidence set: low iff the
// service connection number or transformer code contains the uncertainty
// placeholder, high otherwise. Pure function, no side effects.
func TagConfidence(r LogRecord) LogRecord {
	if strings.Contains(r.ScNo, UncertainChar) || strings.Contains(r.DtrCode, UncertainChar) {
		r.Confidence = ConfidenceLow
	} else {
		r.Confidence = ConfidenceHigh
	}
	return r
}

// ValidateForSubmission checks that a record may be sent to the remote
// store. The service connection number is the only required field; all
// others default to the N/A placeholder at encoding time.
func ValidateForSubmission(r LogRecord) error {
	if strings.TrimSpace(r.ScNo) == "" {
		return ValidationError{Field: FieldScNo, Message: "missing required field"}
	}
	return nil
}

// OrPlaceholder trims the value and substitutes the N/A placeholder when
// it is empty. Used when encoding records for the append endpoint.
func OrPlaceholder(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	return s
}
