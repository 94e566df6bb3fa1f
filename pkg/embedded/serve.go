// Package embedded runs a lessonview course shipped inside a Go binary.
package embedded

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/livetemplate/lessonview/internal/config"
	"github.com/livetemplate/lessonview/internal/server"
)

// Serve serves the course in contentFS until ctx is cancelled.
//
// Example usage:
//
//	//go:embed course/*
//	var courseFS embed.FS
//
//	func main() {
//	    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	    defer stop()
//	    embedded.Serve(ctx, courseFS, "course", "localhost:8080")
//	}
func Serve(ctx context.Context, contentFS fs.FS, rootPath string, addr string) error {
	return ServeWithOptions(ctx, Options{
		ContentFS: contentFS,
		RootPath:  rootPath,
		Addr:      addr,
	})
}

// Options provides configuration for the embedded server.
type Options struct {
	// ContentFS holds the lesson document and an optional lessonview.yaml.
	ContentFS fs.FS

	// RootPath is the path prefix within the ContentFS (e.g., "course")
	RootPath string

	// Addr is the address to listen on (e.g., "localhost:8080")
	Addr string

	// Config overrides the embedded config (optional)
	Config *config.Config

	// Logger receives server logs. Defaults to a no-op logger.
	Logger *zap.Logger

	// OnReady is called with the listening address once connections are
	// accepted (optional)
	OnReady func(addr string)
}

// ServeWithOptions serves until ctx is cancelled or the listener fails.
func ServeWithOptions(ctx context.Context, opts Options) error {
	// The document loader reads from disk, so the course is extracted first.
	tmpDir, err := os.MkdirTemp("", "lessonview-embedded-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := extractFS(opts.ContentFS, opts.RootPath, tmpDir); err != nil {
		return fmt.Errorf("failed to extract embedded content: %w", err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.LoadFromDir(tmpDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	srv, err := server.New(cfg.LessonsPath(tmpDir), cfg, logger)
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	handler, limiterDone := srv.Handler(ctx)
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	if opts.OnReady != nil {
		opts.OnReady(listener.Addr().String())
	}

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown error", zap.Error(err))
		}
	}

	cancel()
	<-limiterDone
	return serveErr
}

// extractFS extracts files from an fs.FS to a directory on disk.
func extractFS(contentFS fs.FS, rootPath string, destDir string) error {
	srcFS := contentFS
	if rootPath != "" && rootPath != "." {
		sub, err := fs.Sub(contentFS, rootPath)
		if err != nil {
			return fmt.Errorf("failed to get sub-filesystem at %q: %w", rootPath, err)
		}
		srcFS = sub
	}

	cleanDestDir := filepath.Clean(destDir)

	return fs.WalkDir(srcFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		destPath := filepath.Join(destDir, path)
		cleanDestPath := filepath.Clean(destPath)
		if !strings.HasPrefix(cleanDestPath, cleanDestDir+string(os.PathSeparator)) && cleanDestPath != cleanDestDir {
			return fmt.Errorf("path traversal detected: %q resolves outside destination directory", path)
		}

		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}

		content, err := fs.ReadFile(srcFS, path)
		if err != nil {
			return fmt.Errorf("failed to read embedded file %q: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}
		return os.WriteFile(destPath, content, 0644)
	})
}
