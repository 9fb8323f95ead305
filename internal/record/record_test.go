package record

import (
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// TagConfidence Tests
// ----------------------------------------------------------------------------

func TestTagConfidence(t *testing.T) {
	tests := []struct {
		name string
		rec  LogRecord
		want Confidence
	}{
		{
			name: "clean 13 digit sc number",
			rec:  LogRecord{ScNo: "2612345678901", DtrCode: "DTR-102"},
			want: ConfidenceHigh,
		},
		{
			name: "uncertain digit in sc number",
			rec:  LogRecord{ScNo: "26123?678901", DtrCode: "DTR-102"},
			want: ConfidenceLow,
		},
		{
			name: "uncertain character in dtr code",
			rec:  LogRecord{ScNo: "2612345678901", DtrCode: "DTR-1?2"},
			want: ConfidenceLow,
		},
		{
			name: "empty fields",
			rec:  LogRecord{},
			want: ConfidenceHigh,
		},
		{
			name: "placeholder only in free-form fields",
			rec:  LogRecord{ScNo: "2612345678901", DtrCode: "T-500", Location: "near pole ?"},
			want: ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TagConfidence(tt.rec)
			if got.Confidence != tt.want {
				t.Errorf("TagConfidence() confidence = %q, want %q", got.Confidence, tt.want)
			}
			// Tagging must not touch any other field.
			if got.ScNo != tt.rec.ScNo || got.DtrCode != tt.rec.DtrCode {
				t.Errorf("TagConfidence() mutated record fields")
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ValidateForSubmission Tests
// ----------------------------------------------------------------------------

func TestValidateForSubmission(t *testing.T) {
	if err := ValidateForSubmission(LogRecord{ScNo: "2612345678901"}); err != nil {
		t.Errorf("ValidateForSubmission() error = %v, want nil", err)
	}

	err := ValidateForSubmission(LogRecord{DtrCode: "DTR-88"})
	if err == nil {
		t.Fatal("ValidateForSubmission() expected error for empty scNo")
	}
	var verr ValidationError
	if !asValidationError(err, &verr) {
		t.Fatalf("ValidateForSubmission() error type = %T, want ValidationError", err)
	}
	if verr.Field != FieldScNo {
		t.Errorf("ValidationError.Field = %q, want %q", verr.Field, FieldScNo)
	}

	// Whitespace-only is still missing.
	if err := ValidateForSubmission(LogRecord{ScNo: "   "}); err == nil {
		t.Error("ValidateForSubmission() expected error for whitespace scNo")
	}
}

func asValidationError(err error, target *ValidationError) bool {
	ve, ok := err.(ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

func TestOrPlaceholder(t *testing.T) {
	if got := OrPlaceholder("  "); got != Placeholder {
		t.Errorf("OrPlaceholder(blank) = %q, want %q", got, Placeholder)
	}
	if got := OrPlaceholder(" FEEDER-A "); got != "FEEDER-A" {
		t.Errorf("OrPlaceholder() = %q, want trimmed value", got)
	}
}

// ----------------------------------------------------------------------------
// Batch Reconciler Tests
// ----------------------------------------------------------------------------

func testBatch() Batch {
	return Batch{
		{ID: "ext-1", ScNo: "2612345678901", DtrCode: "DTR-1", FeederName: "FEEDER-A", Location: "Substation 4"},
		{ID: "ext-2", ScNo: "2612345678902", DtrCode: "DTR-2", FeederName: "FEEDER-B", Location: "Main Road"},
		{ID: "ext-3", ScNo: "2612345678903", DtrCode: "DTR-3", FeederName: "FEEDER-C", Location: "Market"},
	}
}

func TestBatchEditField(t *testing.T) {
	b := testBatch()
	before2 := b[1]

	// Two sequential edits on the same field: last writer wins.
	b2 := b.EditField("ext-1", FieldDtrCode, "DTR-1A")
	b3 := b2.EditField("ext-1", FieldDtrCode, "DTR-2")

	got, ok := b3.Find("ext-1")
	if !ok {
		t.Fatal("record ext-1 missing after edit")
	}
	if got.DtrCode != "DTR-2" {
		t.Errorf("DtrCode = %q, want %q", got.DtrCode, "DTR-2")
	}
	if got.ID != "ext-1" || got.ScNo != "2612345678901" {
		t.Errorf("edit changed identity or untouched fields: %+v", got)
	}

	// Other records are byte-identical to before the calls.
	after2, _ := b3.Find("ext-2")
	if after2 != before2 {
		t.Errorf("untouched record changed: %+v != %+v", after2, before2)
	}

	// Original snapshot is not mutated.
	if b[0].DtrCode != "DTR-1" {
		t.Errorf("EditField mutated input snapshot")
	}
}

func TestBatchEditFieldUnknownID(t *testing.T) {
	b := testBatch()
	b2 := b.EditField("ext-99", FieldScNo, "0000000000000")
	if len(b2) != len(b) {
		t.Fatalf("len = %d, want %d", len(b2), len(b))
	}
	for i := range b {
		if b2[i] != b[i] {
			t.Errorf("record %d changed on unknown-id edit", i)
		}
	}
}

func TestBatchRemove(t *testing.T) {
	b := testBatch()
	b2 := b.Remove("ext-2")

	if len(b2) != 2 {
		t.Fatalf("len = %d, want 2", len(b2))
	}
	// Relative order of the remaining records is preserved.
	if b2[0].ID != "ext-1" || b2[1].ID != "ext-3" {
		t.Errorf("order after remove = [%s %s], want [ext-1 ext-3]", b2[0].ID, b2[1].ID)
	}
	// Unknown id is a no-op.
	b3 := b2.Remove("ext-2")
	if len(b3) != 2 {
		t.Errorf("remove of absent id changed batch length")
	}
}

// ----------------------------------------------------------------------------
// Model helpers
// ----------------------------------------------------------------------------

func TestNewIDUniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID("ext")
		if !strings.HasPrefix(id, "ext-") {
			t.Fatalf("NewID() = %q, want ext- prefix", id)
		}
		if seen[id] {
			t.Fatalf("NewID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestParseField(t *testing.T) {
	for _, valid := range []string{"scNo", "dtrCode", "feederName", "location"} {
		if _, ok := ParseField(valid); !ok {
			t.Errorf("ParseField(%q) not recognized", valid)
		}
	}
	if _, ok := ParseField("confidence"); ok {
		t.Error("ParseField(confidence) should be rejected")
	}
}

func TestRecordMatches(t *testing.T) {
	r := LogRecord{ScNo: "2612345678901", DtrCode: "DTR-88", FeederName: "FEEDER-A", Location: "Market Road"}
	for _, q := range []string{"dtr-88", "feeder", "market", "261234"} {
		if !r.Matches(q) {
			t.Errorf("Matches(%q) = false, want true", q)
		}
	}
	if r.Matches("substation") {
		t.Error("Matches(substation) = true, want false")
	}
}
