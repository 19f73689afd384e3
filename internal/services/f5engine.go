package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/logger"
	"github.com/bobarin/voiceclone/internal/storage"
	"github.com/bobarin/voiceclone/internal/worker"
)

// ---------------------------------------------------------------------------
// F5Engine: engine.Engine backed by a resident worker process
// ---------------------------------------------------------------------------

// workerProcess is the part of *worker.Worker the engine needs.
type workerProcess interface {
	Stop() error
}

// F5Engine implements engine.Engine on top of one F5-TTS worker.
type F5Engine struct {
	client *F5Client
	proc   workerProcess
}

// Ensure F5Engine implements engine.Engine at compile time.
var _ engine.Engine = (*F5Engine)(nil)

// NewF5Engine wraps an already-running worker. proc may be nil when the
// worker's lifetime is managed elsewhere.
func NewF5Engine(client *F5Client, proc workerProcess) *F5Engine {
	return &F5Engine{client: client, proc: proc}
}

// TextToPath synthesizes text cloned from ref into dst.
func (e *F5Engine) TextToPath(ctx context.Context, text string, ref engine.Reference, dst string) error {
	req := TTSRequest{Text: text}
	if len(ref.Data) > 0 {
		req.ReferenceAudio = ref.Data
	} else {
		// The worker runs with its own working directory.
		abs, err := filepath.Abs(ref.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve reference path: %w", err)
		}
		req.ReferencePath = abs
	}
	return e.synthesizeTo(ctx, req, dst)
}

// BytesToPaths synthesizes each text with the shared reference bytes.
func (e *F5Engine) BytesToPaths(ctx context.Context, texts []string, reference []byte, dsts []string) error {
	if len(texts) != len(dsts) {
		return fmt.Errorf("got %d texts but %d destinations", len(texts), len(dsts))
	}

	for i, text := range texts {
		req := TTSRequest{Text: text, ReferenceAudio: reference}
		if err := e.synthesizeTo(ctx, req, dsts[i]); err != nil {
			return &engine.ItemError{Index: i, Err: err}
		}
		logger.Debugf("[F5] Batch item %d/%d written to %s", i+1, len(texts), dsts[i])
	}
	return nil
}

func (e *F5Engine) synthesizeTo(ctx context.Context, req TTSRequest, dst string) error {
	audio, err := e.client.Synthesize(ctx, req)
	if err != nil {
		return err
	}
	return storage.WriteFile(dst, audio)
}

// Close drops the worker's caches and stops it.
func (e *F5Engine) Close(ctx context.Context) error {
	releaseErr := e.client.Release(ctx)
	if releaseErr != nil {
		logger.Warnf("[F5] Cache release failed, stopping worker anyway: %v", releaseErr)
	}

	if e.proc == nil {
		return releaseErr
	}
	if err := e.proc.Stop(); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// F5LoaderOptions configure how new engines are brought up.
type F5LoaderOptions struct {
	Command        string
	Args           []string
	StartupTimeout time.Duration
	RequestTimeout time.Duration
}

// NewF5Loader returns an engine.Loader that starts a fresh worker and waits
// for it to report healthy. The worker is stopped again if it never does.
func NewF5Loader(opts F5LoaderOptions) engine.Loader {
	return func(ctx context.Context) (engine.Engine, error) {
		w, err := worker.Start(worker.Options{
			Command:        opts.Command,
			Args:           opts.Args,
			StartupTimeout: opts.StartupTimeout,
		})
		if err != nil {
			return nil, err
		}

		client := NewF5Client(w.BaseURL(), opts.RequestTimeout)

		logger.Infof("[F5] Waiting for worker at %s to load weights (timeout %s)", w.Addr(), opts.StartupTimeout)
		if err := w.WaitReady(ctx, client.HealthCheck, opts.StartupTimeout, 0); err != nil {
			if stopErr := w.Stop(); stopErr != nil {
				logger.Warnf("[F5] Failed to stop unready worker: %v", stopErr)
			}
			return nil, err
		}

		return NewF5Engine(client, w), nil
	}
}
