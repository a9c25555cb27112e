package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"killcurve/adapters/excel"
	"killcurve/app"
	"killcurve/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout = 10 * time.Second
	maxUploadBytes  = 32 << 20
)

// Server exposes the HTTP API lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
	Handler() http.Handler
}

var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        config.ServerConfig
	svc        *app.AnalysisService
	exporter   *excel.Exporter
	now        func() time.Time
	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewServer creates the API server.
func NewServer(
	log logrus.FieldLogger,
	cfg config.ServerConfig,
	svc *app.AnalysisService,
	exporter *excel.Exporter,
) Server {
	return &server{
		log:      log.WithField("component", "api"),
		cfg:      cfg,
		svc:      svc,
		exporter: exporter,
		now:      time.Now,
	}
}

// Handler returns the routed handler without starting a listener.
func (s *server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in the background.
func (s *server) Start(ctx context.Context) error {
	addr := ":" + s.cfg.Port

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", addr).Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	s.log.Info("API server stopped")

	return nil
}
