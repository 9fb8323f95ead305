package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"logautofill/internal/core"
	"logautofill/internal/record"
	"logautofill/internal/vision"
	"logautofill/internal/voice"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON shape for failures. The code is meant to be
// quoted when reporting a problem.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and returns the mapped
// user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	logRequestError(r, err, statusCode)

	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks an HTTP status for an orchestrator error.
func statusFor(err error) int {
	var verr record.ValidationError
	switch {
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrWrongState):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// decodeBody decodes a JSON request body with a sane size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// handleIndex serves the embedded landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// handleState returns the orchestrator snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.State())
}

// handleHistory returns synced records, optionally filtered by ?q=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs := s.service.History(r.URL.Query().Get("q"))
	if recs == nil {
		recs = []record.LogRecord{}
	}
	writeJSON(w, recs)
}

// handleHistoryRefresh re-fetches the remote export on demand.
func (s *Server) handleHistoryRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RefreshHistory(r.Context()); err != nil {
		respondError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, s.service.State())
}

type extractRequest struct {
	// Images are raw base64 or data: URLs, as the browser's FileReader
	// produces them.
	Images []string `json:"images"`
}

type extractResponse struct {
	Batch record.Batch  `json:"batch"`
	State core.Snapshot `json:"state"`
}

// handleExtract accepts captured images and runs OCR extraction.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	maxBody := s.cfg.Upload.MaxImageSize*int64(s.cfg.Upload.MaxImages) + 1024
	var req extractRequest
	if err := decodeBody(w, r, &req, maxBody); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if len(req.Images) == 0 {
		respondError(w, r, errors.New("extraction produced no data: no images provided"), http.StatusBadRequest)
		return
	}
	if len(req.Images) > s.cfg.Upload.MaxImages {
		respondError(w, r, errors.New("too many images in one capture"), http.StatusBadRequest)
		return
	}

	images := make([][]byte, 0, len(req.Images))
	for _, payload := range req.Images {
		img, err := vision.DecodeImagePayload(payload)
		if err != nil {
			respondError(w, r, err, http.StatusBadRequest)
			return
		}
		if int64(len(img)) > s.cfg.Upload.MaxImageSize {
			respondError(w, r, errors.New("image exceeds maximum size"), http.StatusBadRequest)
			return
		}
		images = append(images, img)
	}

	batch, err := s.service.ExtractBatch(r.Context(), images)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, extractResponse{Batch: batch, State: s.service.State()})
}

// handleBatch returns the working batch under review.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	batch := s.service.Batch()
	if batch == nil {
		batch = record.Batch{}
	}
	writeJSON(w, batch)
}

type batchEditRequest struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleBatchEdit applies one cell edit to the review batch.
func (s *Server) handleBatchEdit(w http.ResponseWriter, r *http.Request) {
	var req batchEditRequest
	if err := decodeBody(w, r, &req, 1<<20); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	field, ok := record.ParseField(req.Field)
	if !ok {
		respondError(w, r, errors.New("unknown field: "+req.Field), http.StatusBadRequest)
		return
	}
	if err := s.service.EditBatchField(req.ID, field, req.Value); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, s.service.Batch())
}

type batchRemoveRequest struct {
	ID string `json:"id"`
}

// handleBatchRemove drops one record from the review batch.
func (s *Server) handleBatchRemove(w http.ResponseWriter, r *http.Request) {
	var req batchRemoveRequest
	if err := decodeBody(w, r, &req, 1<<20); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.RemoveBatchRecord(req.ID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, s.service.Batch())
}

// handleBatchSubmit appends the reviewed batch to the remote store.
func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.service.SubmitBatch(r.Context()); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, s.service.State())
}

// handleManualSubmit appends one manually entered record.
func (s *Server) handleManualSubmit(w http.ResponseWriter, r *http.Request) {
	var entry core.ManualEntry
	if err := decodeBody(w, r, &entry, 1<<20); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.SubmitManual(r.Context(), entry); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, s.service.State())
}

type voiceRequest struct {
	Transcript string `json:"transcript"`
	Field      string `json:"field"`
}

type voiceResponse struct {
	Value string `json:"value"`
}

// handleVoiceNormalize converts a speech transcript into a field value.
func (s *Server) handleVoiceNormalize(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := decodeBody(w, r, &req, 1<<20); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	field, ok := record.ParseField(req.Field)
	if !ok {
		respondError(w, r, errors.New("unknown field: "+req.Field), http.StatusBadRequest)
		return
	}
	writeJSON(w, voiceResponse{Value: voice.Normalize(req.Transcript, field)})
}

// handleReset forces the orchestrator back to Idle and refreshes the
// history. The reset itself always succeeds; a refresh failure is
// reported but leaves the app usable.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(r.Context()); err != nil {
		respondError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, s.service.State())
}
