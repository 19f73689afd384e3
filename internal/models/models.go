package models

import (
	"time"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/storage"
)

// DTOs for API responses

type StatusResponse struct {
	Status engine.Status `json:"status"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Artifact describes one generated audio file.
type Artifact struct {
	File            string  `json:"file"` // Path as written, relative to the server's working directory when OUTPUT_DIR is relative
	Name            string  `json:"name"` // Base name, usable with GET /files/{name}
	URL             string  `json:"url"`  // Download path on this server
	Bytes           int64   `json:"bytes"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// SingleResponse is returned by POST /single.
type SingleResponse struct {
	Artifact
}

// SeveralResponse is returned by POST /several. Files[i] belongs to the i-th
// non-blank input line.
type SeveralResponse struct {
	Files     []string   `json:"files"`
	Artifacts []Artifact `json:"artifacts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Index *int   `json:"index,omitempty"` // Failing batch item, when known
}

// FilesPrefix is where artifacts are served from.
const FilesPrefix = "/files/"

func NewArtifact(a storage.Artifact) Artifact {
	return Artifact{
		File:            a.Path,
		Name:            a.Name,
		URL:             FilesPrefix + a.Name,
		Bytes:           a.Bytes,
		DurationSeconds: a.Duration.Round(time.Millisecond).Seconds(),
	}
}

func NewSeveralResponse(artifacts []storage.Artifact) SeveralResponse {
	resp := SeveralResponse{
		Files:     make([]string, len(artifacts)),
		Artifacts: make([]Artifact, len(artifacts)),
	}
	for i, a := range artifacts {
		resp.Files[i] = a.Path
		resp.Artifacts[i] = NewArtifact(a)
	}
	return resp
}
