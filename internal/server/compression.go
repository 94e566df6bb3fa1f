package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// compressible lists the content type prefixes worth gzipping. Images other
// than SVG are already compressed.
var compressible = []string{
	"text/",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

func isCompressible(contentType string) bool {
	for _, prefix := range compressible {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// gzipResponseWriter decides on the first write whether the response is
// compressed, based on the handler's Content-Type.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	decided     bool
	compressing bool
}

func (w *gzipResponseWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true

	h := w.ResponseWriter.Header()
	if h.Get("Content-Encoding") != "" || !isCompressible(h.Get("Content-Type")) {
		return
	}
	w.compressing = true
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	// The handler's length is of the uncompressed body.
	h.Del("Content-Length")

	w.gz = gzipWriterPool.Get().(*gzip.Writer)
	w.gz.Reset(w.ResponseWriter)
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if status != http.StatusNoContent && status != http.StatusNotModified {
		w.decide()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.ResponseWriter.Header().Get("Content-Type") == "" {
		w.ResponseWriter.Header().Set("Content-Type", http.DetectContentType(b))
	}
	w.decide()
	if !w.compressing {
		return w.ResponseWriter.Write(b)
	}
	return w.gz.Write(b)
}

func (w *gzipResponseWriter) close() {
	if w.gz == nil {
		return
	}
	w.gz.Close()
	w.gz.Reset(io.Discard)
	gzipWriterPool.Put(w.gz)
	w.gz = nil
}

// gzipWriterPool reuses gzip writers to reduce GC pressure
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// compressionMiddleware adds gzip compression to textual responses
func compressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if client accepts gzip
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		// Don't compress WebSocket connections; the upgrade needs the
		// underlying writer's Hijacker.
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: w}
		defer gzw.close()
		next.ServeHTTP(gzw, r)
	})
}

// WithCompression wraps an http.Handler with compression middleware
func WithCompression(h http.Handler) http.Handler {
	return compressionMiddleware(h)
}
