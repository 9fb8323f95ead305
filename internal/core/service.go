// Package core owns the sync orchestrator: the state machine that
// sequences extraction, review, submission and history refresh, and the
// in-memory collections those steps operate on. It has no UI or wire
// dependencies; collaborators arrive as interfaces.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"logautofill/internal/record"
)

// State is the orchestrator's current mode. Exactly one is active at a
// time and it gates which operations are accepted, so two transitions
// can never run concurrently.
type State string

const (
	// StateIdle: nothing in flight, history visible.
	StateIdle State = "IDLE"
	// StateProcessing: extraction or submission in flight.
	StateProcessing State = "PROCESSING"
	// StateReview: a draft batch awaits human correction.
	StateReview State = "REVIEW"
	// StateSuccess: submission acknowledged; transient, auto-advances
	// to Idle after the refresh delay.
	StateSuccess State = "SUCCESS"
)

// Extractor turns photos of handwritten logs into draft records.
type Extractor interface {
	Extract(ctx context.Context, images [][]byte) ([]record.LogRecord, error)
}

// Store is the remote spreadsheet-backed store. Append is
// fire-and-forget: a nil error only means the transport did not fail.
type Store interface {
	FetchHistory(ctx context.Context) ([]record.LogRecord, error)
	Append(ctx context.Context, recs []record.LogRecord) error
}

// ManualEntry is the manual form's payload.
type ManualEntry struct {
	ScNo       string `json:"scNo"`
	DtrCode    string `json:"dtrCode"`
	FeederName string `json:"feederName"`
	Location   string `json:"location"`
}

// Snapshot is the externally visible orchestrator state.
type Snapshot struct {
	State       State `json:"state"`
	BatchSize   int   `json:"batchSize"`
	HistorySize int   `json:"historySize"`
}

// Service is the sync orchestrator. All transitions are serialized
// through one mutex; network calls run outside the lock with the state
// machine holding Processing so no second operation can slip in.
type Service struct {
	extractor    Extractor
	store        Store
	refreshDelay time.Duration
	historyLimit int
	now          func() time.Time

	mu      sync.Mutex
	state   State
	batch   record.Batch
	history []record.LogRecord

	// epoch invalidates in-flight completions after an explicit reset:
	// a completion applies only if no reset happened since it started.
	epoch        uint64
	successTimer *time.Timer
}

// NewService creates an orchestrator in the Idle state with an empty
// history. The caller decides when the first refresh happens.
func NewService(extractor Extractor, store Store, refreshDelay time.Duration, historyLimit int) *Service {
	return &Service{
		extractor:    extractor,
		store:        store,
		refreshDelay: refreshDelay,
		historyLimit: historyLimit,
		now:          time.Now,
		state:        StateIdle,
	}
}

// State returns the current orchestrator snapshot.
func (s *Service) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:       s.state,
		BatchSize:   len(s.batch),
		HistorySize: len(s.history),
	}
}

// History returns synced records matching the query across all four
// text fields, case-insensitive. An empty query returns the most recent
// records up to the configured limit.
func (s *Service) History(query string) []record.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		n := len(s.history)
		if s.historyLimit > 0 && n > s.historyLimit {
			n = s.historyLimit
		}
		out := make([]record.LogRecord, n)
		copy(out, s.history[:n])
		return out
	}

	var out []record.LogRecord
	for _, r := range s.history {
		if r.Matches(q) {
			out = append(out, r)
		}
	}
	return out
}

// Batch returns a copy of the working batch under review.
func (s *Service) Batch() record.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(record.Batch, len(s.batch))
	copy(out, s.batch)
	return out
}

// RefreshHistory re-fetches the remote export and replaces the history
// wholesale. On failure the prior in-memory history is untouched.
func (s *Service) RefreshHistory(ctx context.Context) error {
	recs, err := s.store.FetchHistory(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.history = recs
	s.mu.Unlock()
	return nil
}

// ExtractBatch runs OCR extraction over the images and, on success,
// installs the resulting draft batch and enters Review. On any failure
// the state returns to Idle with no partial batch retained.
func (s *Service) ExtractBatch(ctx context.Context, images [][]byte) (record.Batch, error) {
	e, err := s.beginProcessing(StateIdle)
	if err != nil {
		return nil, err
	}

	recs, extractErr := s.extractor.Extract(ctx, images)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != e {
		// Reset raced the extraction; the batch is discarded.
		return nil, ErrWrongState
	}
	if extractErr != nil {
		s.state = StateIdle
		return nil, extractErr
	}
	if len(recs) == 0 {
		s.state = StateIdle
		return nil, fmt.Errorf("extraction produced no data")
	}

	s.state = StateReview
	s.batch = record.Batch(recs)
	out := make(record.Batch, len(s.batch))
	copy(out, s.batch)
	return out, nil
}

// EditBatchField applies one cell edit to the working batch.
// Only valid while a batch is under review.
func (s *Service) EditBatchField(id string, field record.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return ErrWrongState
	}
	s.batch = s.batch.EditField(id, field, value)
	return nil
}

// RemoveBatchRecord drops one record from the working batch.
func (s *Service) RemoveBatchRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return ErrWrongState
	}
	s.batch = s.batch.Remove(id)
	return nil
}

// SubmitBatch validates and appends the reviewed batch. Every record is
// gated on its service connection number before any network call. On
// transport failure the batch is retained unchanged so the user can
// retry; on acknowledgment the orchestrator enters Success and, after
// the refresh delay, returns to Idle with exactly one history refresh.
func (s *Service) SubmitBatch(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateProcessing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != StateReview || len(s.batch) == 0 {
		s.mu.Unlock()
		return ErrWrongState
	}
	for _, r := range s.batch {
		if err := record.ValidateForSubmission(r); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.state = StateProcessing
	e := s.epoch
	snapshot := make(record.Batch, len(s.batch))
	copy(snapshot, s.batch)
	s.mu.Unlock()

	appendErr := s.store.Append(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != e {
		return nil
	}
	if appendErr != nil {
		// Batch retained unchanged for retry.
		s.state = StateReview
		return appendErr
	}
	s.enterSuccessLocked(e)
	return nil
}

// SubmitManual validates and appends a single manually entered record
// as pending. On failure the state returns to Idle and the form content
// stays with the client, preserved as entered.
func (s *Service) SubmitManual(ctx context.Context, entry ManualEntry) error {
	rec := record.LogRecord{
		ID:         record.NewID("manual"),
		ScNo:       strings.TrimSpace(entry.ScNo),
		DtrCode:    strings.TrimSpace(entry.DtrCode),
		FeederName: strings.TrimSpace(entry.FeederName),
		Location:   strings.TrimSpace(entry.Location),
		SyncStatus: record.StatusPending,
		Timestamp:  s.now().Format("1/2/2006, 3:04:05 PM"),
	}
	if err := record.ValidateForSubmission(rec); err != nil {
		return err
	}

	e, err := s.beginProcessing(StateIdle)
	if err != nil {
		return err
	}

	appendErr := s.store.Append(ctx, []record.LogRecord{rec})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != e {
		return nil
	}
	if appendErr != nil {
		s.state = StateIdle
		return appendErr
	}
	s.enterSuccessLocked(e)
	return nil
}

// Reset forces the orchestrator back to Idle from any state, discards
// any in-flight review batch, and triggers a history refresh.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	if s.successTimer != nil {
		s.successTimer.Stop()
		s.successTimer = nil
	}
	s.state = StateIdle
	s.batch = nil
	s.mu.Unlock()

	return s.RefreshHistory(ctx)
}

// beginProcessing transitions from the required state into Processing
// and returns the epoch the caller must check on completion.
func (s *Service) beginProcessing(from State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateProcessing {
		return 0, ErrBusy
	}
	if s.state != from {
		return 0, ErrWrongState
	}
	s.state = StateProcessing
	return s.epoch, nil
}

// enterSuccessLocked moves to Success and schedules the automatic
// return to Idle. Called with the mutex held.
func (s *Service) enterSuccessLocked(e uint64) {
	s.state = StateSuccess
	s.successTimer = time.AfterFunc(s.refreshDelay, func() {
		s.completeSuccess(e)
	})
}

// completeSuccess finishes a submission cycle: back to Idle, batch
// cleared, one history refresh. The refresh delay gives the store's
// eventual consistency time to catch up; it is a heuristic, not a
// guarantee.
func (s *Service) completeSuccess(e uint64) {
	s.mu.Lock()
	if s.epoch != e || s.state != StateSuccess {
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	s.batch = nil
	s.successTimer = nil
	s.mu.Unlock()

	if err := s.RefreshHistory(context.Background()); err != nil {
		slog.Warn("post-submit history refresh failed", "error", err)
	}
}
