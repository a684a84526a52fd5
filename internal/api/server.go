// Package api exposes finlens over HTTP with gin.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Options configures the router.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine with every finlens route.
func NewRouter(svc Services, opts Options, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.RequestTimeout > 0 {
		r.Use(requestTimeout(opts.RequestTimeout))
	}

	h := NewHandler(svc, logger)
	r.POST("/classify", h.Classify)
	r.POST("/classify_batch", h.ClassifyBatch)
	r.POST("/classify_llm", h.ClassifyLLM)
	r.POST("/classify_llm_batch", h.ClassifyLLMBatch)
	r.GET("/fin_term_definition", h.Definition)
	r.POST("/define_term_text", h.DefineText)
	r.POST("/define_term_image", h.DefineImage)
	r.POST("/recommend_menu", h.RecommendMenu)
	r.GET("/health", h.Health)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Server runs the router on an http.Server until its context ends.
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a Server. A nil tlsConfig serves plain HTTP.
func NewServer(addr string, handler http.Handler, tlsConfig *tls.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger:          logger,
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.httpServer.TLSConfig != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("Server listening", "addr", ln.Addr().String(), "tls", s.httpServer.TLSConfig != nil)

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
