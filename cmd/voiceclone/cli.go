package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/bobarin/voiceclone/internal/config"
	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/logger"
	"github.com/bobarin/voiceclone/internal/storage"
	"github.com/bobarin/voiceclone/internal/studio"
	"github.com/bobarin/voiceclone/internal/synth"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	studioLogName     = "voiceclone.log"
)

type CLI struct {
	Globals `embed:""`

	Version kong.VersionFlag `help:"Print version and exit"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Serve the HTTP API (default)"`
	Studio StudioCmd `cmd:"" help:"Open the interactive terminal studio"`
	Say    SayCmd    `cmd:"" help:"Synthesize the given text once, then unload the model"`
}

// Globals override the matching environment variables when set.
type Globals struct {
	Port      string `short:"p" help:"HTTP port (API_PORT)"`
	OutputDir string `short:"o" type:"path" help:"Directory for generated audio (OUTPUT_DIR)"`
	LogLevel  string `help:"debug, info, warn or error (LOG_LEVEL)"`
	LogFile   string `type:"path" help:"Also write logs to this rotating file (LOG_FILE)"`
}

func (g *Globals) apply(cfg *config.Config) {
	if g.Port != "" {
		cfg.APIPort = g.Port
	}
	if g.OutputDir != "" {
		cfg.OutputDir = g.OutputDir
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.LogFile = g.LogFile
	}
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

type ServeCmd struct {
	Preload bool `help:"Load the model at startup instead of on first request"`
}

func (c *ServeCmd) Run(g *Globals) error {
	app, err := setup(g, false)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Preload {
		if _, err := app.proc.Load(ctx); err != nil {
			return err
		}
	}

	return serveHTTP(ctx, app)
}

// serveHTTP runs the API until ctx is done, then drains in-flight requests.
func serveHTTP(ctx context.Context, app *App) error {
	server := &http.Server{
		Addr:              ":" + app.cfg.APIPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if app.cfg.BackendAPIKey != "" {
		logger.Infof("[API] API key authentication enabled")
	} else {
		logger.Warnf("[API] No BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("[API] Listening on :%s (output dir %s)", app.cfg.APIPort, app.cfg.OutputDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("[API] Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Infof("[API] Server exited")
		return nil
	})

	return g.Wait()
}

// ---------------------------------------------------------------------------
// studio
// ---------------------------------------------------------------------------

type StudioCmd struct {
	HTTP bool `name:"http" help:"Also serve the HTTP API, sharing the same model"`
}

func (c *StudioCmd) Run(g *Globals) error {
	// The terminal belongs to the UI, so logs go to a file.
	if g.LogFile == "" {
		g.LogFile = filepath.Join(firstNonEmpty(g.OutputDir, "."), studioLogName)
	}

	app, err := setup(g, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		return studio.Run(gctx, app.proc)
	})
	if c.HTTP {
		group.Go(func() error {
			return serveHTTP(gctx, app)
		})
	}
	return group.Wait()
}

// ---------------------------------------------------------------------------
// say
// ---------------------------------------------------------------------------

type SayCmd struct {
	Reference string   `short:"r" required:"" type:"path" help:"Reference voice sample (WAV)"`
	Several   bool     `help:"Write one file per line even for a single argument"`
	Text      []string `arg:"" help:"Text to speak. Several arguments produce output_{i}.wav each"`
}

func (c *SayCmd) Run(g *Globals) error {
	app, err := setup(g, false)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	if len(c.Text) == 1 && !c.Several {
		artifact, err := app.proc.SynthesizeSingle(ctx, c.Text[0], engine.ReferenceFromPath(c.Reference))
		if err != nil {
			return err
		}
		fmt.Printf("Generated file %q\n", artifact.Path)
		return nil
	}

	texts := synth.SplitLines(strings.Join(c.Text, "\n"))
	if len(texts) == 0 {
		fmt.Println("Nothing to say")
		return nil
	}

	reference, err := storage.ReadReference(c.Reference)
	if err != nil {
		return fmt.Errorf("%w: %w", synth.ErrInvalidReference, err)
	}

	artifacts, err := app.proc.SynthesizeBatch(ctx, texts, reference)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		fmt.Printf("Generated file %q\n", a.Path)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
