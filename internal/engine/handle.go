package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobarin/voiceclone/internal/logger"
)

// Observer receives lifecycle notifications. Metrics plug in here.
type Observer interface {
	EngineLoaded(elapsed time.Duration)
	EngineReleased()
	EngineLoadFailed()
}

// Handle is the single owner of the engine instance.
//
// It is a two-state machine: Unloaded and Loaded. Acquire moves Unloaded to
// Loaded (no-op when Loaded), Release moves Loaded to Unloaded (no-op when
// Unloaded), and Use auto-acquires. One mutex guards all three, so at most
// one construction is in flight and Release waits for running synthesis.
type Handle struct {
	mu       sync.Mutex
	loader   Loader
	engine   Engine
	observer Observer

	// loaded mirrors engine != nil so Status does not wait behind a synthesis.
	loaded atomic.Bool
}

// NewHandle returns an unloaded handle that builds engines with loader.
func NewHandle(loader Loader) *Handle {
	return &Handle{loader: loader}
}

// SetObserver installs o for subsequent lifecycle events.
func (h *Handle) SetObserver(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = o
}

// Acquire returns the live engine, constructing it if needed.
func (h *Handle) Acquire(ctx context.Context) (Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acquireLocked(ctx)
}

func (h *Handle) acquireLocked(ctx context.Context) (Engine, error) {
	if h.engine != nil {
		return h.engine, nil
	}

	logger.Infof("[Engine] Loading model...")
	start := time.Now()

	eng, err := h.loader(ctx)
	if err != nil {
		if h.observer != nil {
			h.observer.EngineLoadFailed()
		}
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}
	if eng == nil {
		if h.observer != nil {
			h.observer.EngineLoadFailed()
		}
		return nil, fmt.Errorf("%w: loader returned no engine", ErrConstruction)
	}

	elapsed := time.Since(start)
	logger.Infof("[Engine] Model loaded in %s", elapsed.Round(time.Millisecond))

	h.engine = eng
	h.loaded.Store(true)
	if h.observer != nil {
		h.observer.EngineLoaded(elapsed)
	}
	return eng, nil
}

// Load acquires the engine and reports StatusLoaded.
func (h *Handle) Load(ctx context.Context) (Status, error) {
	if _, err := h.Acquire(ctx); err != nil {
		return StatusUnloaded, err
	}
	return StatusLoaded, nil
}

// Release destroys the engine if one is live. It always reports
// StatusUnloaded; a failure while closing is logged, the reference is
// dropped regardless.
func (h *Handle) Release(ctx context.Context) Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		return StatusUnloaded
	}

	eng := h.engine
	h.engine = nil
	h.loaded.Store(false)

	if err := eng.Close(ctx); err != nil {
		logger.Warnf("[Engine] Error while releasing model: %v", err)
	} else {
		logger.Infof("[Engine] Model unloaded")
	}

	if h.observer != nil {
		h.observer.EngineReleased()
	}
	return StatusUnloaded
}

// Use runs fn with the live engine, loading it first when necessary.
// The handle stays locked until fn returns.
func (h *Handle) Use(ctx context.Context, fn func(Engine) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	eng, err := h.acquireLocked(ctx)
	if err != nil {
		return err
	}
	return fn(eng)
}

// Status reports the current state without side effects. It does not block
// on an in-flight load or synthesis.
func (h *Handle) Status() Status {
	if h.loaded.Load() {
		return StatusLoaded
	}
	return StatusUnloaded
}
