package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/codeGROOVE-dev/zipTZ/pkg/display"
	"github.com/codeGROOVE-dev/zipTZ/pkg/eventloop"
	"github.com/codeGROOVE-dev/zipTZ/pkg/gemini"
	"github.com/codeGROOVE-dev/zipTZ/pkg/googlemaps"
	"github.com/codeGROOVE-dev/zipTZ/pkg/logo"
	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcache"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zippopotam"
	"github.com/codeGROOVE-dev/zipTZ/pkg/ziptz"
)

const logFileName = "ziptz.log"

func run(ctx context.Context, cfg config, args []string, in io.Reader, out io.Writer) error {
	interactive := !cfg.Once && isTerminal(out)
	if !isTerminal(out) {
		color.NoColor = true
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cacheDir = filepath.Join(dir, "ziptz")
		}
	}

	logger, closeLog := newLogger(cfg.Verbose, interactive, cacheDir)
	defer closeLog()

	resolver, cache := buildResolver(ctx, cfg, cacheDir, logger)
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("Failed to close zip cache", "error", err)
			}
		}()
	}

	var rows []string
	if cfg.Logo != "" {
		var err error
		if rows, err = logo.Load(cfg.Logo, logo.DefaultWidth); err != nil {
			logger.Debug("logo unavailable", "path", cfg.Logo, "error", err)
		}
	}

	loop := eventloop.New(logger)
	term := display.NewTerminal(out, display.Options{Logger: logger, Logo: rows, Interactive: interactive})
	ctl := ziptz.New(resolver, term, loop, ziptz.WithLogger(logger))

	if cfg.Once {
		// The loop never runs, so the controller belongs to this goroutine.
		defer ctl.Close()
		if err := ctl.Submit(ctx, args[0]); err != nil {
			return &queryError{err: err}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &session{ctl: ctl, term: term, logger: logger, cancel: cancel, ctx: ctx}
	loop.Post(term.Start)
	if len(args) == 1 {
		loop.Post(func() { s.handle(args[0]) })
	}
	go s.read(in, loop)

	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	ctl.Close()
	if interactive {
		fmt.Fprintln(out)
	}
	return nil
}

// session feeds terminal input to the controller. handle runs on the loop.
type session struct {
	ctx    context.Context //nolint:containedctx // scoped to the loop's lifetime
	ctl    *ziptz.Controller
	term   *display.Terminal
	logger *slog.Logger
	cancel context.CancelFunc
}

// read posts each input line to the loop and stops the loop on EOF.
func (s *session) read(in io.Reader, loop *eventloop.Loop) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if !loop.Post(func() { s.handle(line) }) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("reading input", "error", err)
	}
	loop.Post(s.cancel)
}

func (s *session) handle(line string) {
	if s.ctx.Err() != nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit":
		s.cancel()
		return
	case "clear":
		s.ctl.Clear()
	default:
		// The controller shows and logs the error.
		_ = s.ctl.Submit(s.ctx, line)
	}
	s.term.Prompt()
}

// buildResolver chains Zippopotam.us, then Google Maps and Gemini when
// configured, behind the lookup cache unless caching is disabled.
func buildResolver(ctx context.Context, cfg config, cacheDir string, logger *slog.Logger) (lookup.Resolver, *zipcache.Cache) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	resolvers := []lookup.Named{{
		Name: zippopotam.SourceName,
		Resolver: zippopotam.NewClient(httpClient, logger,
			zippopotam.WithBaseURL(cfg.ZippopotamURL)),
	}}
	if cfg.MapsKey != "" {
		resolvers = append(resolvers, lookup.Named{
			Name:     googlemaps.SourceName,
			Resolver: googlemaps.NewClient(cfg.MapsKey, httpClient, logger),
		})
	}
	if cfg.GeminiKey != "" || cfg.GCPProject != "" {
		resolvers = append(resolvers, lookup.Named{
			Name:     gemini.SourceName,
			Resolver: gemini.NewClient(cfg.GeminiKey, cfg.GeminiModel, cfg.GCPProject, logger),
		})
	}
	logger.Debug("resolvers configured", "count", len(resolvers))
	var resolver lookup.Resolver = lookup.NewChain(logger, resolvers...)

	if cfg.NoCache {
		return resolver, nil
	}
	cache, err := zipcache.New(ctx, cacheDir, cfg.CacheTTL, logger)
	if err != nil {
		logger.Warn("zip cache disabled", "dir", cacheDir, "error", err)
		return resolver, nil
	}
	return cache.Wrap(resolver), cache
}

// newLogger logs to stderr, or to a file in the cache directory while the
// interactive card owns the screen.
func newLogger(verbose, interactive bool, cacheDir string) (*slog.Logger, func()) {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if !interactive {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}
	}
	if cacheDir == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	f, err := os.OpenFile(filepath.Join(cacheDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
