// Package engine owns the lifecycle of the voice-cloning inference engine.
//
// The engine itself is opaque: anything satisfying Engine can be plugged in.
// A Handle constructs it lazily on first demand and destroys it on Release,
// and serializes every use so a release never races an in-flight synthesis.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Status is the externally visible state of a Handle.
type Status string

const (
	StatusLoaded   Status = "loaded"
	StatusUnloaded Status = "unloaded"
)

var (
	// ErrConstruction wraps any failure to bring up the engine.
	ErrConstruction = errors.New("engine construction failed")
	// ErrSynthesis wraps failures raised by the engine during inference.
	ErrSynthesis = errors.New("synthesis failed")
)

// Engine is the narrow capability set the request processor relies on.
type Engine interface {
	// TextToPath synthesizes text in the voice of ref and writes the audio to dst.
	TextToPath(ctx context.Context, text string, ref Reference, dst string) error

	// BytesToPaths synthesizes texts[i] into dsts[i], in order, cloning the
	// voice carried by reference for every item. It stops at the first
	// failing item and reports it as an *ItemError.
	BytesToPaths(ctx context.Context, texts []string, reference []byte, dsts []string) error

	// Close releases the model and any accelerator memory it holds.
	Close(ctx context.Context) error
}

// Loader constructs a fresh Engine. It may be slow (weights are loaded here).
type Loader func(ctx context.Context) (Engine, error)

// Reference identifies the voice to clone: either a path on disk or raw bytes.
// When both are set Data wins.
type Reference struct {
	Path string
	Data []byte
}

// ReferenceFromPath returns a Reference that points at a file.
func ReferenceFromPath(path string) Reference {
	return Reference{Path: path}
}

// ReferenceFromBytes returns a Reference carrying the sample in memory.
func ReferenceFromBytes(data []byte) Reference {
	return Reference{Data: data}
}

// IsZero reports whether neither a path nor data was supplied.
func (r Reference) IsZero() bool {
	return r.Path == "" && len(r.Data) == 0
}

// ItemError reports which batch entry the engine failed on.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
