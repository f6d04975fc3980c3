package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/db/filestore"
	"github.com/meghashyamc/docquery/db/kvdb"
	"github.com/meghashyamc/docquery/llm"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
	"github.com/meghashyamc/docquery/services/index"
	"github.com/meghashyamc/docquery/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       kvdb.DB
	store      *filestore.Store
	service    *index.Service
	validator  *validation.Validator
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// Run serves the API until ctx is cancelled or the process receives SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !strings.EqualFold(cfg.GetLogLevel(), "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s, err := newServer(ctx, cfg, logger.New(cfg.GetLogLevel(), cfg.GetLogFormat()))
	if err != nil {
		return err
	}
	defer s.close()

	return s.serve(ctx)
}

func newServer(ctx context.Context, cfg *config.Config, logger logger.Logger) (*server, error) {
	s := &server{cfg: cfg, logger: logger}
	if err := s.setupDependencies(ctx); err != nil {
		s.close()
		return nil, err
	}
	if err := s.setupRouter(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	s.store, err = filestore.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating file store", "err", err.Error())
		return err
	}
	boltDB, err := kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.kvdb = boltDB
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}
	answerer, err := llm.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating answerer", "err", err.Error())
		return err
	}

	s.metrics = metrics.New()
	s.service = index.New(s.logger, s.cfg, s.store, s.kvdb, answerer, s.metrics)

	if s.cfg.GetRebuildOnStart() {
		if _, err := s.service.Rebuild(ctx); err != nil && !errors.Is(err, index.ErrNoDocuments) {
			s.logger.Error("could not rebuild index on start", "err", err.Error())
			return err
		}
	}

	return nil
}

func (s *server) setupRouter() error {
	router := newRouter(s.logger, s.metrics)
	if err := setupRoutes(router, s.cfg, s.logger, s.service, s.validator, s.metrics); err != nil {
		return err
	}
	s.router = router
	return nil
}

func (s *server) serve(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.GetAddress(),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("http server stopped", "err", err.Error())
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("starting to shut down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "err", err)
		return err
	}
	s.logger.Info("shut down http server successfully")
	return nil
}

func (s *server) close() {
	if s.service != nil {
		s.service.Close()
	}
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing kvDB", "err", err.Error())
		}
	}
}
