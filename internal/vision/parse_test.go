package vision

import (
	"encoding/base64"
	"testing"

	"logautofill/internal/record"
)

func TestParseRows(t *testing.T) {
	text := `[
		{"scNo":"2612345678901","dtrCode":"DTR-102","feederName":"FEEDER-A","location":"Market Road"},
		{"scNo":"26123?678901","dtrCode":"T-500","feederName":"FEEDER-B","location":"Substation 4"}
	]`

	recs, err := ParseRows(text)
	if err != nil {
		t.Fatalf("ParseRows() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ParseRows() len = %d, want 2", len(recs))
	}

	if recs[0].Confidence != record.ConfidenceHigh {
		t.Errorf("row 0 confidence = %q, want high", recs[0].Confidence)
	}
	if recs[1].Confidence != record.ConfidenceLow {
		t.Errorf("row 1 confidence = %q, want low", recs[1].Confidence)
	}
	for i, r := range recs {
		if r.SyncStatus != record.StatusDraft {
			t.Errorf("row %d status = %q, want draft", i, r.SyncStatus)
		}
		if r.ID == "" {
			t.Errorf("row %d missing id", i)
		}
	}
	if recs[0].ScNo != "2612345678901" || recs[1].DtrCode != "T-500" {
		t.Errorf("ParseRows() mangled fields: %+v", recs)
	}
}

func TestParseRowsFenced(t *testing.T) {
	text := "```json\n[{\"scNo\":\"2612345678901\",\"dtrCode\":\"D\",\"feederName\":\"F\",\"location\":\"L\"}]\n```"
	recs, err := ParseRows(text)
	if err != nil {
		t.Fatalf("ParseRows(fenced) error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ParseRows(fenced) len = %d, want 1", len(recs))
	}
}

func TestParseRowsNoData(t *testing.T) {
	for _, text := range []string{"[]", "not json at all", "{\"scNo\":\"x\"}"} {
		if _, err := ParseRows(text); err == nil {
			t.Errorf("ParseRows(%q) expected error", text)
		}
	}
}

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01}
	b64 := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "raw base64", input: b64},
		{name: "data url", input: "data:image/jpeg;base64," + b64},
		{name: "data url without comma", input: "data:image/jpeg;base64", wantErr: true},
		{name: "garbage", input: "!!!not-base64!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeImagePayload(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeImagePayload() error = %v", err)
			}
			if len(got) != len(raw) {
				t.Errorf("decoded %d bytes, want %d", len(got), len(raw))
			}
		})
	}
}

func TestSniffImageMIME(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}
	if got := sniffImageMIME(png); got != "image/png" {
		t.Errorf("png sniff = %q", got)
	}
	jpeg := []byte{0xFF, 0xD8, 0xFF}
	if got := sniffImageMIME(jpeg); got != "image/jpeg" {
		t.Errorf("jpeg sniff = %q", got)
	}
}
