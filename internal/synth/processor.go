// Package synth turns single and batch synthesis requests into engine calls
// and output artifacts.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/logger"
	"github.com/bobarin/voiceclone/internal/storage"
)

var (
	ErrEmptyText        = errors.New("text is required")
	ErrInvalidReference = errors.New("invalid reference voice")
)

// Kind labels a request for logs and metrics.
type Kind string

const (
	KindSingle Kind = "single"
	KindBatch  Kind = "batch"
)

// Recorder observes finished requests.
type Recorder interface {
	ObserveSynthesis(kind Kind, items int, elapsed time.Duration, err error)
}

// Processor is the core used by every front end: load, unload, single and
// batch synthesis. It never unloads the engine on its own.
type Processor struct {
	handle   *engine.Handle
	store    *storage.Storage
	recorder Recorder
}

func NewProcessor(handle *engine.Handle, store *storage.Storage) *Processor {
	return &Processor{handle: handle, store: store}
}

// SetRecorder installs r; nil disables recording.
func (p *Processor) SetRecorder(r Recorder) {
	p.recorder = r
}

// Load warms the engine up ahead of the first request. Like synthesis it
// is not abandoned when the caller goes away.
func (p *Processor) Load(ctx context.Context) (engine.Status, error) {
	return p.handle.Load(context.WithoutCancel(ctx))
}

// Unload releases the engine and its accelerator memory.
func (p *Processor) Unload(ctx context.Context) engine.Status {
	return p.handle.Release(context.WithoutCancel(ctx))
}

// Status reports whether the engine is resident.
func (p *Processor) Status() engine.Status {
	return p.handle.Status()
}

// Storage exposes where artifacts are written.
func (p *Processor) Storage() *storage.Storage {
	return p.store
}

// SynthesizeSingle speaks text in the voice of ref and writes output.wav,
// replacing whatever a previous single request left there.
func (p *Processor) SynthesizeSingle(ctx context.Context, text string, ref engine.Reference) (artifact storage.Artifact, err error) {
	start := time.Now()
	defer func() { p.record(KindSingle, 1, start, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return storage.Artifact{}, ErrEmptyText
	}
	if err := checkReference(ref); err != nil {
		return storage.Artifact{}, err
	}

	// Synthesis runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	requestID := uuid.NewString()
	dst := p.store.SinglePath()

	logger.Infof("[Synth] %s single request (%d chars) -> %s", requestID, len(text), dst)

	err = p.handle.Use(ctx, func(eng engine.Engine) error {
		if err := eng.TextToPath(ctx, text, ref, dst); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrSynthesis, err)
		}
		return nil
	})
	if err != nil {
		logger.Errorf("[Synth] %s failed: %v", requestID, err)
		return storage.Artifact{}, err
	}

	artifact, err = storage.Describe(dst)
	if err != nil {
		return storage.Artifact{}, fmt.Errorf("%w: %w", engine.ErrSynthesis, err)
	}

	logger.Infof("[Synth] %s done in %s", requestID, time.Since(start).Round(time.Millisecond))
	return artifact, nil
}

// SynthesizeBatch speaks every non-blank text in the voice carried by
// reference. Artifact i is output_{i}.wav and corresponds to the i-th
// non-blank text. The engine is acquired once for the whole batch. The first
// failing item aborts the rest and no partial result is returned.
func (p *Processor) SynthesizeBatch(ctx context.Context, texts []string, reference []byte) (artifacts []storage.Artifact, err error) {
	start := time.Now()
	texts = Normalize(texts)
	if len(texts) == 0 {
		return []storage.Artifact{}, nil
	}
	defer func() { p.record(KindBatch, len(texts), start, err) }()

	if err := storage.ValidateReference(reference); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}

	ctx = context.WithoutCancel(ctx)
	requestID := uuid.NewString()
	dsts := p.store.BatchPaths(len(texts))

	logger.Infof("[Synth] %s batch request (%d items, reference %d bytes)", requestID, len(texts), len(reference))

	err = p.handle.Use(ctx, func(eng engine.Engine) error {
		if err := eng.BytesToPaths(ctx, texts, reference, dsts); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrSynthesis, err)
		}
		return nil
	})
	if err != nil {
		logger.Errorf("[Synth] %s failed: %v", requestID, err)
		return nil, err
	}

	artifacts = make([]storage.Artifact, 0, len(dsts))
	for _, dst := range dsts {
		artifact, err := storage.Describe(dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", engine.ErrSynthesis, err)
		}
		artifacts = append(artifacts, artifact)
	}

	logger.Infof("[Synth] %s produced %d files in %s", requestID, len(artifacts), time.Since(start).Round(time.Millisecond))
	return artifacts, nil
}

func (p *Processor) record(kind Kind, items int, start time.Time, err error) {
	if p.recorder != nil {
		p.recorder.ObserveSynthesis(kind, items, time.Since(start), err)
	}
}

func checkReference(ref engine.Reference) error {
	switch {
	case len(ref.Data) > 0:
		if err := storage.ValidateReference(ref.Data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReference, err)
		}
	case ref.Path != "":
		if _, err := storage.ReadReference(ref.Path); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReference, err)
		}
	default:
		return fmt.Errorf("%w: no reference supplied", ErrInvalidReference)
	}
	return nil
}

// Paths extracts the file paths from artifacts.
func Paths(artifacts []storage.Artifact) []string {
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.Path
	}
	return paths
}
