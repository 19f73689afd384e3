// Package storage manages the audio artifacts written by the synthesizer.
//
// Files live in a single output directory with deterministic names:
// output.wav for single requests and output_{index}.wav for batches.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const (
	singleOutputName = "output.wav"
	batchOutputFmt   = "output_%d.wav"

	dirPermissions  = 0o755
	filePermissions = 0o644
)

var artifactName = regexp.MustCompile(`^output(_[0-9]+)?\.wav$`)

// Artifact is a generated audio file and where it was written.
type Artifact struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

type Storage struct {
	Dir string
}

// New prepares dir for artifacts, creating it if necessary.
func New(dir string) (*Storage, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	return &Storage{Dir: dir}, nil
}

// SinglePath is the fixed destination for single requests.
func (s *Storage) SinglePath() string {
	return filepath.Join(s.Dir, singleOutputName)
}

// BatchPath is the destination of batch item index (0-based).
func (s *Storage) BatchPath(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(batchOutputFmt, index))
}

// BatchPaths returns the destinations for n batch items, in order.
func (s *Storage) BatchPaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = s.BatchPath(i)
	}
	return paths
}

// IsArtifactName reports whether name is one of the generated file names.
func IsArtifactName(name string) bool {
	return artifactName.MatchString(name)
}

// Resolve maps an artifact name to its path in the output dir. Anything that
// is not an artifact name (including traversal attempts) is rejected.
func (s *Storage) Resolve(name string) (string, error) {
	if !IsArtifactName(name) {
		return "", fmt.Errorf("not an artifact: %q", name)
	}
	return filepath.Join(s.Dir, name), nil
}

// WriteFile replaces path with data atomically: readers see either the old
// or the new file, never a partial one.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close audio file: %w", err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod audio file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move audio into place: %w", err)
	}
	return nil
}

// Describe stats path and, when it decodes as WAV, records its duration.
func Describe(path string) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact missing at %s: %w", path, err)
	}

	artifact := Artifact{
		Path:  path,
		Name:  filepath.Base(path),
		Bytes: info.Size(),
	}
	if d, err := WAVDuration(path); err == nil {
		artifact.Duration = d
	}
	return artifact, nil
}
