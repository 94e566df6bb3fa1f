package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/livetemplate/lessonview/internal/logging"
	"github.com/livetemplate/lessonview/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may finish on Ctrl+C.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	path       string
	configPath string
	port       string
	host       string
	watch      *bool
	debug      bool
}

func parseServeArgs(args []string) serveOptions {
	opts := serveOptions{path: "."}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--watch" || arg == "-w" {
			watchVal := true
			opts.watch = &watchVal
		} else if arg == "--no-watch" {
			watchVal := false
			opts.watch = &watchVal
		} else if arg == "--debug" {
			opts.debug = true
		} else if arg == "--port" || arg == "-p" {
			if i+1 < len(args) {
				opts.port = args[i+1]
				i++
			}
		} else if arg == "--host" {
			if i+1 < len(args) {
				opts.host = args[i+1]
				i++
			}
		} else if arg == "--config" || arg == "-c" {
			if i+1 < len(args) {
				opts.configPath = args[i+1]
				i++
			}
		} else if !strings.HasPrefix(arg, "-") {
			// Positional argument (directory or lesson document)
			opts.path = arg
		}
	}
	return opts
}

// prepareServe resolves the document and applies CLI flags over the
// configuration.
func prepareServe(opts serveOptions) (*target, error) {
	t, err := resolveTarget(opts.path, opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg := t.config

	if opts.port != "" {
		portInt, err := strconv.Atoi(opts.port)
		if err != nil || portInt < 0 || portInt > 65535 {
			return nil, fmt.Errorf("invalid port: %s", opts.port)
		}
		cfg.Server.Port = portInt
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.watch != nil {
		cfg.Features.HotReload = *opts.watch
	}
	if opts.debug {
		cfg.Server.Debug = true
	}
	if cfg.Logging.File != "" && !filepath.IsAbs(cfg.Logging.File) {
		cfg.Logging.File = filepath.Join(t.dir, cfg.Logging.File)
	}
	return t, nil
}

// ServeCommand implements the serve command.
func ServeCommand(args []string) error {
	t, err := prepareServe(parseServeArgs(args))
	if err != nil {
		return err
	}
	cfg := t.config

	logger := logging.New(logging.Options{
		File:       cfg.Logging.File,
		Production: cfg.Logging.Production,
		Debug:      cfg.Server.Debug,
	})
	defer logger.Sync()

	srv, err := server.New(t.docPath, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Features.HotReload {
		if err := srv.EnableWatch(); err != nil {
			return fmt.Errorf("failed to enable watch mode: %w", err)
		}
		defer srv.StopWatch()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, limiterDone := srv.Handler(ctx)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("📚 %s\n\n", cfg.Title)
	fmt.Printf("Lessons: %s (%d)\n", t.docPath, len(srv.Index().Lessons()))
	fmt.Printf("\n🌐 Server running at http://%s/pali\n", cfg.Server.Addr())
	if cfg.Features.HotReload {
		fmt.Printf("📝 Edit %s and open pages reload\n", filepath.Base(t.docPath))
	}
	fmt.Printf("Press Ctrl+C to stop\n\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}

	stop()
	<-limiterDone
	return runErr
}
