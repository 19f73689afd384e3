package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/logger"
	"github.com/bobarin/voiceclone/internal/models"
	"github.com/bobarin/voiceclone/internal/storage"
	"github.com/bobarin/voiceclone/internal/synth"
)

// Multipart field names.
const (
	fieldText      = "text"
	fieldTexts     = "texts"
	fieldReference = "reference"
)

type Handler struct {
	proc      *synth.Processor
	maxUpload int64
}

// NewHandler creates the HTTP handlers. maxUpload bounds multipart bodies in bytes.
func NewHandler(proc *synth.Processor, maxUpload int64) *Handler {
	return &Handler{
		proc:      proc,
		maxUpload: maxUpload,
	}
}

// Load handles POST /load
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	status, err := h.proc.Load(r.Context())
	if err != nil {
		logger.Errorf("[API] Load failed: %v", err)
		respondSynthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.StatusResponse{Status: status})
}

// Unload handles POST /unload
func (h *Handler) Unload(w http.ResponseWriter, r *http.Request) {
	status := h.proc.Unload(r.Context())
	respondJSON(w, http.StatusOK, models.StatusResponse{Status: status})
}

// Status handles GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.StatusResponse{Status: h.proc.Status()})
}

// Single handles POST /single
// Multipart fields:
//   - text:      the text to speak (required)
//   - reference: the voice sample to clone (required, WAV)
func (h *Handler) Single(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	reference, ok := h.readReference(w, r)
	if !ok {
		return
	}

	artifact, err := h.proc.SynthesizeSingle(r.Context(), r.FormValue(fieldText), engine.ReferenceFromBytes(reference))
	if err != nil {
		respondSynthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.SingleResponse{Artifact: models.NewArtifact(artifact)})
}

// Several handles POST /several
// Multipart fields:
//   - texts:     one entry per line; may be repeated, blank lines are skipped
//   - reference: the voice sample shared by every entry (WAV)
//
// Input with no non-blank lines yields {"files": []}.
func (h *Handler) Several(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	texts := synth.SplitLines(strings.Join(r.MultipartForm.Value[fieldTexts], "\n"))

	reference, ok := h.readReference(w, r)
	if !ok {
		return
	}

	artifacts, err := h.proc.SynthesizeBatch(r.Context(), texts, reference)
	if err != nil {
		respondSynthError(w, err)
		return
	}

	logger.Infof("[API] Batch of %d produced %v", len(texts), artifactNames(artifacts))
	respondJSON(w, http.StatusOK, models.NewSeveralResponse(artifacts))
}

// File handles GET /files/{name}
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	path, err := h.proc.Storage().Resolve(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

// Helper methods

// parseForm reads a multipart body capped at maxUpload. It writes the error
// response itself and reports whether the caller may continue.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return false
	}
	return true
}

// readReference returns the uploaded reference sample, or nil when none was
// sent. Validation is left to the processor.
func (h *Handler) readReference(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	file, _, err := r.FormFile(fieldReference)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reference upload")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read reference upload")
		return nil, false
	}
	return data, true
}

// respondSynthError maps processor errors to HTTP statuses.
func respondSynthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, synth.ErrEmptyText):
		respondError(w, http.StatusBadRequest, "Text is required")
	case errors.Is(err, synth.ErrInvalidReference):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrConstruction):
		respondError(w, http.StatusServiceUnavailable, "Engine could not be loaded")
	case errors.Is(err, engine.ErrSynthesis):
		resp := models.ErrorResponse{Error: "Synthesis failed"}
		var itemErr *engine.ItemError
		if errors.As(err, &itemErr) {
			resp.Index = &itemErr.Index
		}
		respondJSON(w, http.StatusInternalServerError, resp)
	default:
		logger.Errorf("[API] Unexpected error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

// artifactNames is used by logs to keep lines short.
func artifactNames(artifacts []storage.Artifact) []string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	return names
}
