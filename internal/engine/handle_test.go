package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/engine/enginetest"
)

func TestHandleStartsUnloaded(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)

	assert.Equal(t, engine.StatusUnloaded, h.Status())
	assert.Zero(t, loader.Builds(), "construction must be lazy")
}

func TestLoadTwiceKeepsSameInstance(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)
	ctx := context.Background()

	status, err := h.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusLoaded, status)

	first, err := h.Acquire(ctx)
	require.NoError(t, err)

	status, err = h.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusLoaded, status)

	second, err := h.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.Builds())
}

func TestUnloadIsIdempotent(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)
	ctx := context.Background()

	_, err := h.Load(ctx)
	require.NoError(t, err)
	fake := loader.Last()

	assert.Equal(t, engine.StatusUnloaded, h.Release(ctx))
	assert.True(t, fake.Closed())
	assert.Equal(t, engine.StatusUnloaded, h.Release(ctx))
	assert.Equal(t, engine.StatusUnloaded, h.Status())
}

func TestUnloadWithoutLoadIsNoop(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)

	assert.Equal(t, engine.StatusUnloaded, h.Release(context.Background()))
	assert.Zero(t, loader.Builds())
}

func TestReleaseSwallowsCloseError(t *testing.T) {
	loader := &enginetest.Loader{Configure: func(f *enginetest.Fake) {
		f.CloseErr = errors.New("cuda context lost")
	}}
	h := engine.NewHandle(loader.Load)
	ctx := context.Background()

	_, err := h.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusUnloaded, h.Release(ctx))
	assert.Equal(t, engine.StatusUnloaded, h.Status())
}

func TestReloadAfterReleaseBuildsNewInstance(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)
	ctx := context.Background()

	first, err := h.Acquire(ctx)
	require.NoError(t, err)
	h.Release(ctx)

	second, err := h.Acquire(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, loader.Builds())
}

func TestConstructionFailurePropagates(t *testing.T) {
	cause := errors.New("weights not found")
	loader := &enginetest.Loader{Err: cause}
	h := engine.NewHandle(loader.Load)

	status, err := h.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrConstruction)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, engine.StatusUnloaded, status)
	assert.Equal(t, engine.StatusUnloaded, h.Status())

	// No retry happens on its own; a new call tries again.
	loader.Err = nil
	status, err = h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusLoaded, status)
}

func TestNilEngineIsConstructionFailure(t *testing.T) {
	h := engine.NewHandle(func(context.Context) (engine.Engine, error) { return nil, nil })

	_, err := h.Acquire(context.Background())
	assert.ErrorIs(t, err, engine.ErrConstruction)
}

func TestConcurrentColdStartConstructsOnce(t *testing.T) {
	loader := &enginetest.Loader{Delay: 20 * time.Millisecond}
	h := engine.NewHandle(loader.Load)

	var wg sync.WaitGroup
	engines := make([]engine.Engine, 16)
	for i := range engines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eng, err := h.Acquire(context.Background())
			assert.NoError(t, err)
			engines[i] = eng
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, loader.Builds())
	for _, eng := range engines {
		assert.Same(t, engines[0], eng)
	}
}

func TestUseAutoAcquires(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)

	var seen engine.Engine
	err := h.Use(context.Background(), func(eng engine.Engine) error {
		seen = eng
		return nil
	})
	require.NoError(t, err)

	assert.NotNil(t, seen)
	assert.Equal(t, engine.StatusLoaded, h.Status())
	assert.Equal(t, 1, loader.Builds())
}

func TestReleaseWaitsForInFlightUse(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)
	ctx := context.Background()

	inside := make(chan struct{})
	proceed := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- h.Use(ctx, func(eng engine.Engine) error {
			close(inside)
			<-proceed
			return eng.TextToPath(ctx, "still here", engine.Reference{}, t.TempDir()+"/out.wav")
		})
	}()
	<-inside

	released := make(chan engine.Status, 1)
	go func() { released <- h.Release(ctx) }()

	select {
	case <-released:
		t.Fatal("release completed while synthesis held the engine")
	case <-time.After(50 * time.Millisecond):
	}

	// Status must not block behind the in-flight use.
	assert.Equal(t, engine.StatusLoaded, h.Status())

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, engine.StatusUnloaded, <-released)
	assert.True(t, loader.Last().Closed())
}

type recordingObserver struct {
	mu                     sync.Mutex
	loads, releases, fails int
}

func (o *recordingObserver) EngineLoaded(time.Duration) { o.mu.Lock(); o.loads++; o.mu.Unlock() }
func (o *recordingObserver) EngineReleased()            { o.mu.Lock(); o.releases++; o.mu.Unlock() }
func (o *recordingObserver) EngineLoadFailed()          { o.mu.Lock(); o.fails++; o.mu.Unlock() }

func TestObserverSeesTransitions(t *testing.T) {
	loader := &enginetest.Loader{}
	h := engine.NewHandle(loader.Load)
	obs := &recordingObserver{}
	h.SetObserver(obs)
	ctx := context.Background()

	_, _ = h.Load(ctx)
	_, _ = h.Load(ctx)
	h.Release(ctx)
	h.Release(ctx)
	loader.Err = errors.New("boom")
	_, _ = h.Load(ctx)

	assert.Equal(t, 1, obs.loads)
	assert.Equal(t, 1, obs.releases)
	assert.Equal(t, 1, obs.fails)
}
