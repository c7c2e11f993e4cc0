package infra

import (
	"context"
	"net/http"
	"time"
)

// Uploads are assumed to arrive at no less than this rate when sizing the
// read deadline.
const minUploadBytesPerSecond = 256 << 10

// HTTPServer wraps http.Server to provide graceful startup and shutdown helpers.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer creates the storefront API server. Read and write deadlines are
// stretched so that a maximum-size photo upload, plus the backend round trip
// it triggers, fits inside them.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	read, write := serverTimeouts(cfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       read,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		MaxHeaderBytes:    64 << 10,
	}

	return &HTTPServer{server: srv}
}

// serverTimeouts returns the read and write timeouts for cfg.
func serverTimeouts(cfg *Config) (time.Duration, time.Duration) {
	read := cfg.HTTPReadTimeout
	if cfg.MaxUploadBytes > 0 {
		upload := time.Duration(cfg.MaxUploadBytes/minUploadBytesPerSecond+1) * time.Second
		read = max(read, upload)
	}
	// The write deadline starts when the request headers are read, so it has
	// to cover the body read and the synchronous submit call.
	write := max(cfg.HTTPWriteTimeout, read+cfg.TryOnAPITimeout)
	return read, write
}

// Addr returns the listen address.
func (s *HTTPServer) Addr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start runs the HTTP server in the current goroutine.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
