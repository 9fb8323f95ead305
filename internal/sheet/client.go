package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"logautofill/internal/record"
)

// Client reaches the remote spreadsheet store over HTTP.
//
// Reads go through the published CSV export URL; writes go through the
// deployed script endpoint. The script endpoint gives no read-back
// confirmation: a write is acknowledged only in the sense that the
// transport did not fail. Actual success is observed later through a
// full history refresh. That asymmetry is a property of the store, not
// something this client papers over.
type Client struct {
	httpClient *http.Client
	csvURL     string
	scriptURL  string
	now        func() time.Time
}

// NewClient creates a store client for the given export and script URLs.
func NewClient(csvURL, scriptURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		csvURL:     csvURL,
		scriptURL:  scriptURL,
		now:        time.Now,
	}
}

// FetchHistory downloads and decodes the full CSV export.
// A cache-busting timestamp parameter is appended on every call so
// intermediaries never serve a stale export.
func (c *Client) FetchHistory(ctx context.Context) ([]record.LogRecord, error) {
	url := c.csvURL + sep(c.csvURL) + "t=" + strconv.FormatInt(c.now().UnixMilli(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("history fetch: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history fetch: transport unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch: transport unavailable: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("history fetch: read body: %w", err)
	}

	return DecodeRecords(string(body)), nil
}

// appendRow is the wire shape the script endpoint expects. All values
// are strings; empty fields carry the N/A placeholder.
type appendRow struct {
	ScNo       string `json:"scNo"`
	DtrCode    string `json:"dtrCode"`
	FeederName string `json:"feederName"`
	Location   string `json:"location"`
	Timestamp  string `json:"timestamp"`
}

// Append posts records to the script endpoint, fire-and-forget.
//
// The body is a JSON array sent as text/plain: the script endpoint
// redirects on POST, and text/plain avoids the CORS pre-flight round
// trip the browser client also relies on. The response body and status
// are deliberately not read; the only observable failure mode is a
// transport-level error.
func (c *Client) Append(ctx context.Context, recs []record.LogRecord) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([]appendRow, len(recs))
	for i, r := range recs {
		ts := r.Timestamp
		if ts == "" {
			ts = c.now().Format("1/2/2006, 3:04:05 PM")
		}
		rows[i] = appendRow{
			ScNo:       record.OrPlaceholder(r.ScNo),
			DtrCode:    record.OrPlaceholder(r.DtrCode),
			FeederName: record.OrPlaceholder(r.FeederName),
			Location:   record.OrPlaceholder(r.Location),
			Timestamp:  ts,
		}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("append: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("append failed: %w", err)
	}
	// No acknowledgment to read. Drain and close so the connection is
	// reusable.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return nil
}

// sep picks the query separator for the cache-buster parameter.
func sep(url string) string {
	if strings.Contains(url, "?") {
		return "&"
	}
	return "?"
}
