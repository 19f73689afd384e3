// Package enginetest provides an in-memory engine double for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobarin/voiceclone/internal/engine"
)

// ErrFake is returned for texts listed in Fake.FailOn.
var ErrFake = errors.New("fake engine failure")

// Call records one synthesized item.
type Call struct {
	Text      string
	Reference engine.Reference
	Dst       string
}

// Fake writes the synthesized text itself as the "audio" so tests can map
// artifacts back to inputs.
type Fake struct {
	ID int

	mu     sync.Mutex
	calls  []Call
	closed bool

	// FailOn makes synthesis of this text fail.
	FailOn string
	// Hold, when set, blocks synthesis until it is closed.
	Hold chan struct{}
	// Started is signalled (non-blocking) when synthesis begins.
	Started chan struct{}
	// CloseErr is returned from Close.
	CloseErr error
}

var _ engine.Engine = (*Fake)(nil)

func (f *Fake) TextToPath(ctx context.Context, text string, ref engine.Reference, dst string) error {
	return f.synthesize(text, ref, dst)
}

func (f *Fake) BytesToPaths(ctx context.Context, texts []string, reference []byte, dsts []string) error {
	if len(texts) != len(dsts) {
		return fmt.Errorf("texts/dsts length mismatch: %d != %d", len(texts), len(dsts))
	}
	for i, text := range texts {
		if err := f.synthesize(text, engine.ReferenceFromBytes(reference), dsts[i]); err != nil {
			return &engine.ItemError{Index: i, Err: err}
		}
	}
	return nil
}

func (f *Fake) synthesize(text string, ref engine.Reference, dst string) error {
	if f.Started != nil {
		select {
		case f.Started <- struct{}{}:
		default:
		}
	}
	if f.Hold != nil {
		<-f.Hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errors.New("fake engine used after close")
	}
	if f.FailOn != "" && text == f.FailOn {
		return ErrFake
	}

	f.calls = append(f.calls, Call{Text: text, Reference: ref, Dst: dst})
	return os.WriteFile(dst, []byte(text), 0o644)
}

func (f *Fake) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.CloseErr
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Loader counts constructions and hands out Fakes.
type Loader struct {
	builds atomic.Int32

	// Err makes construction fail.
	Err error
	// Delay slows construction down to widen race windows.
	Delay time.Duration
	// Configure, if set, is applied to each new Fake.
	Configure func(*Fake)

	mu   sync.Mutex
	last *Fake
}

// Load satisfies engine.Loader.
func (l *Loader) Load(ctx context.Context) (engine.Engine, error) {
	if l.Delay > 0 {
		time.Sleep(l.Delay)
	}
	if l.Err != nil {
		return nil, l.Err
	}

	f := &Fake{ID: int(l.builds.Add(1))}
	if l.Configure != nil {
		l.Configure(f)
	}

	l.mu.Lock()
	l.last = f
	l.mu.Unlock()
	return f, nil
}

// Builds reports how many engines were constructed.
func (l *Loader) Builds() int {
	return int(l.builds.Load())
}

// Last returns the most recently constructed Fake.
func (l *Loader) Last() *Fake {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
