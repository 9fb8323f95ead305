package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"logautofill/internal/config"
	"logautofill/internal/core"
	"logautofill/internal/record"
)

type stubExtractor struct {
	rows []record.LogRecord
	err  error
}

func (f *stubExtractor) Extract(ctx context.Context, images [][]byte) ([]record.LogRecord, error) {
	return f.rows, f.err
}

type stubStore struct {
	mu          sync.Mutex
	history     []record.LogRecord
	appendCalls int
	appendErr   error
}

func (f *stubStore) FetchHistory(ctx context.Context) ([]record.LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *stubStore) Append(ctx context.Context, recs []record.LogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	return f.appendErr
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Upload.MaxImageSize = 1 << 20
	cfg.Upload.MaxImages = 4
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, ex core.Extractor, st core.Store) (*httptest.Server, *core.Service) {
	t.Helper()
	svc := core.NewService(ex, st, 20*time.Millisecond, 30)
	srv := httptest.NewServer(NewServer(svc, testConfig()).Router())
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func imagePayload() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0x01})
}

func TestHandleState(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{}, &stubStore{})

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	var snap core.Snapshot
	decodeInto(t, resp, &snap)
	if snap.State != core.StateIdle {
		t.Errorf("state = %q, want IDLE", snap.State)
	}
}

func TestHandleHistorySearch(t *testing.T) {
	st := &stubStore{history: []record.LogRecord{
		{ID: "sheet-1", ScNo: "2612345678901", FeederName: "FEEDER-A", SyncStatus: record.StatusSynced},
		{ID: "sheet-2", ScNo: "2612345678902", FeederName: "FEEDER-B", SyncStatus: record.StatusSynced},
	}}
	srv, svc := newTestServer(t, &stubExtractor{}, st)
	if err := svc.RefreshHistory(context.Background()); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/history?q=feeder-b")
	if err != nil {
		t.Fatal(err)
	}
	var recs []record.LogRecord
	decodeInto(t, resp, &recs)
	if len(recs) != 1 || recs[0].ID != "sheet-2" {
		t.Errorf("history search = %+v", recs)
	}
}

func TestExtractReviewSubmitFlow(t *testing.T) {
	rows := []record.LogRecord{
		{ID: "ext-1", ScNo: "2612345678901", DtrCode: "DTR-1", SyncStatus: record.StatusDraft},
		{ID: "ext-2", ScNo: "26123?678901", DtrCode: "DTR-2", SyncStatus: record.StatusDraft},
	}
	st := &stubStore{}
	srv, _ := newTestServer(t, &stubExtractor{rows: rows}, st)

	// Extract enters Review with the draft batch.
	resp := postJSON(t, srv.URL+"/api/extract", map[string]interface{}{
		"images": []string{imagePayload()},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract status = %d", resp.StatusCode)
	}
	var ext extractResponse
	decodeInto(t, resp, &ext)
	if ext.State.State != core.StateReview || len(ext.Batch) != 2 {
		t.Fatalf("extract response = %+v", ext)
	}

	// Correct the uncertain row.
	resp = postJSON(t, srv.URL+"/api/batch/edit", map[string]string{
		"id": "ext-2", "field": "scNo", "value": "2612345678901",
	})
	var batch record.Batch
	decodeInto(t, resp, &batch)
	if got, _ := batch.Find("ext-2"); got.ScNo != "2612345678901" {
		t.Errorf("after edit: %+v", got)
	}

	// Drop the first row; order, identity preserved.
	resp = postJSON(t, srv.URL+"/api/batch/remove", map[string]string{"id": "ext-1"})
	decodeInto(t, resp, &batch)
	if len(batch) != 1 || batch[0].ID != "ext-2" {
		t.Errorf("after remove: %+v", batch)
	}

	// Submit: acknowledged, Success entered.
	resp = postJSON(t, srv.URL+"/api/batch/submit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	var snap core.Snapshot
	decodeInto(t, resp, &snap)
	if snap.State != core.StateSuccess {
		t.Errorf("state after submit = %q, want SUCCESS", snap.State)
	}

	st.mu.Lock()
	calls := st.appendCalls
	st.mu.Unlock()
	if calls != 1 {
		t.Errorf("append calls = %d, want 1", calls)
	}
}

func TestExtractRejectsBadPayloads(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{}, &stubStore{})

	// No images.
	resp := postJSON(t, srv.URL+"/api/extract", map[string]interface{}{"images": []string{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty images status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Garbage base64.
	resp = postJSON(t, srv.URL+"/api/extract", map[string]interface{}{"images": []string{"!!!"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad base64 status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Too many images.
	many := make([]string, 5)
	for i := range many {
		many[i] = imagePayload()
	}
	resp = postJSON(t, srv.URL+"/api/extract", map[string]interface{}{"images": many})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("too many images status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestManualSubmitMissingScNo(t *testing.T) {
	st := &stubStore{}
	srv, _ := newTestServer(t, &stubExtractor{}, st)

	resp := postJSON(t, srv.URL+"/api/manual", map[string]string{"dtrCode": "DTR-88"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	var er ErrorResponse
	decodeInto(t, resp, &er)
	if er.Code != "VAL001" {
		t.Errorf("error code = %q, want VAL001", er.Code)
	}

	st.mu.Lock()
	calls := st.appendCalls
	st.mu.Unlock()
	if calls != 0 {
		t.Errorf("append calls = %d, want none", calls)
	}
}

func TestVoiceNormalizeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubExtractor{}, &stubStore{})

	resp := postJSON(t, srv.URL+"/api/voice/normalize", map[string]string{
		"transcript": "double zero seven", "field": "scNo",
	})
	var vr voiceResponse
	decodeInto(t, resp, &vr)
	if vr.Value != "007" {
		t.Errorf("normalized value = %q, want 007", vr.Value)
	}

	// Unknown field is rejected.
	resp = postJSON(t, srv.URL+"/api/voice/normalize", map[string]string{
		"transcript": "one", "field": "syncStatus",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestResetEndpoint(t *testing.T) {
	rows := []record.LogRecord{{ID: "ext-1", ScNo: "2612345678901", SyncStatus: record.StatusDraft}}
	srv, _ := newTestServer(t, &stubExtractor{rows: rows}, &stubStore{})

	resp := postJSON(t, srv.URL+"/api/extract", map[string]interface{}{"images": []string{imagePayload()}})
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/reset", nil)
	var snap core.Snapshot
	decodeInto(t, resp, &snap)
	if snap.State != core.StateIdle || snap.BatchSize != 0 {
		t.Errorf("after reset: %+v", snap)
	}
}
