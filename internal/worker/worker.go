// Package worker supervises the inference worker process that keeps the
// model resident. Stopping the process is what returns its accelerator
// memory to the system.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hpcloud/tail"
	process "github.com/mudler/go-processmanager"
	"github.com/phayes/freeport"

	"github.com/bobarin/voiceclone/internal/logger"
)

const defaultPollInterval = 500 * time.Millisecond

var (
	ErrCommandNotFound = errors.New("worker command not found")
	ErrExited          = errors.New("worker exited before becoming ready")
	ErrStartupTimeout  = errors.New("worker did not become ready in time")
)

// Options describe how to launch a worker.
type Options struct {
	Command        string
	Args           []string
	StartupTimeout time.Duration
	PollInterval   time.Duration
}

// Worker is one running inference process bound to a loopback port.
type Worker struct {
	name    string
	addr    string
	proc    *process.Process
	stopped bool
	mu      sync.Mutex
	tails   []*tail.Tail
}

// Start launches the worker with `--addr 127.0.0.1:<free port>` appended to
// its args. It returns as soon as the process is running; call WaitReady
// before sending work.
func Start(opts Options) (*Worker, error) {
	bin, err := exec.LookPath(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommandNotFound, opts.Command, err)
	}

	port, err := freeport.GetFreePort()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate worker port: %w", err)
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	args := append(append([]string{}, opts.Args...), "--addr", addr)
	logger.Infof("[Worker] Starting %s %s", bin, strings.Join(args, " "))

	proc := process.New(
		process.WithTemporaryStateDir(),
		process.WithName(bin),
		process.WithArgs(args...),
		process.WithEnvironment(os.Environ()...),
	)
	if err := proc.Run(); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	w := &Worker{name: opts.Command, addr: addr, proc: proc}
	w.follow(proc.StdoutPath(), "stdout")
	w.follow(proc.StderrPath(), "stderr")

	logger.Infof("[Worker] %s running (pid %s, state dir %s)", w.name, proc.PID, proc.StateDir())
	return w, nil
}

// follow streams a worker output file into the debug log.
func (w *Worker) follow(path, stream string) {
	t, err := tail.TailFile(path, tail.Config{Follow: true, ReOpen: true, MustExist: false, Logger: tail.DiscardingLogger})
	if err != nil {
		logger.Debugf("[Worker] Could not tail %s: %v", stream, err)
		return
	}

	w.mu.Lock()
	w.tails = append(w.tails, t)
	w.mu.Unlock()

	go func() {
		for line := range t.Lines {
			logger.Debugf("[Worker] %s %s: %s", w.name, stream, line.Text)
		}
	}()
}

// Addr is host:port of the worker's HTTP server.
func (w *Worker) Addr() string {
	return w.addr
}

// BaseURL is the worker's HTTP root.
func (w *Worker) BaseURL() string {
	return "http://" + w.addr
}

// Alive reports whether the process is still running.
func (w *Worker) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.stopped && w.proc.IsAlive()
}

// WaitReady polls probe until it succeeds, the process dies, or timeout.
func (w *Worker) WaitReady(ctx context.Context, probe func(context.Context) error, timeout, interval time.Duration) error {
	return waitReady(ctx, w.Alive, probe, timeout, interval)
}

func waitReady(ctx context.Context, alive func() bool, probe func(context.Context) error, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		if !alive() {
			return ErrExited
		}
		if lastErr = probe(ctx); lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %s: %v", ErrStartupTimeout, timeout, lastErr)
		case <-ticker.C:
		}
	}
}

// Stop terminates the process and removes its state dir. Safe to call twice.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	tails := w.tails
	w.tails = nil
	w.mu.Unlock()

	err := w.proc.Stop()

	for _, t := range tails {
		t.Stop()
		t.Cleanup()
	}

	if dir := w.proc.StateDir(); dir != "" {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Debugf("[Worker] Could not remove state dir %s: %v", dir, rmErr)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to stop worker: %w", err)
	}
	logger.Infof("[Worker] %s stopped", w.name)
	return nil
}
