package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cicconee/freight-app/internal/quote"
	"github.com/cicconee/freight-app/internal/session"
	"github.com/cicconee/freight-app/internal/tariff"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	Router   *chi.Mux
	Addr     string
	Logger   *log.Logger
	Tariffs  *tariff.Service
	Sessions *session.Store
	Tokens   *session.Tokens

	// Quotes is the quote log. It is nil when no database is configured.
	Quotes *quote.Service

	// Interval is how often idle sessions are swept.
	Interval time.Duration

	// SessionTTL is how long a session may stay idle.
	SessionTTL time.Duration

	// UploadLimit is the maximum size of an upload request in bytes.
	UploadLimit int64

	handler      *Handler
	shutdownCh   chan os.Signal
	worker       *worker
	workerKillCh chan<- struct{}
	wg           *sync.WaitGroup
}

func (s *Server) addr() string {
	if s.Addr == "" {
		s.Addr = "8080"
	}

	return fmt.Sprintf(":%s", s.Addr)
}

func (s *Server) interval() time.Duration {
	if s.Interval == 0 {
		s.Interval = time.Minute
	}

	return s.Interval
}

func (s *Server) sessionTTL() time.Duration {
	if s.SessionTTL == 0 {
		s.SessionTTL = 30 * time.Minute
	}

	return s.SessionTTL
}

func (s *Server) uploadLimit() int64 {
	if s.UploadLimit == 0 {
		s.UploadLimit = 10 << 20
	}

	return s.UploadLimit
}

func (s *Server) init() {
	s.handler = NewHandler(s.Logger)
	s.handler.tariffs = s.Tariffs
	s.handler.sessions = s.Sessions
	s.handler.tokens = s.Tokens
	s.handler.quotes = s.Quotes
	s.handler.uploadLimit = s.uploadLimit()
	s.handler.sessionTTL = s.sessionTTL()
	s.setRoutes()

	s.shutdownCh = make(chan os.Signal, 1)
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	workerKillCh := make(chan struct{}, 1)
	s.workerKillCh = workerKillCh
	s.worker = &worker{
		sessions: s.Sessions,
		logger:   s.Logger,
		ttl:      s.sessionTTL(),
		d:        s.interval(),
		killCh:   workerKillCh,
	}

	s.wg = &sync.WaitGroup{}
}

func (s *Server) setRoutes() {
	s.Router.Get("/", s.handler.HelloWorld())
	s.Router.Post("/tariffs", s.handler.HandleUpload())

	// Routes that need an uploaded tariff.
	validater := SessionValidater{
		sessions: s.Sessions,
		tokens:   s.Tokens,
		logger:   s.Logger,
		ttl:      s.sessionTTL(),
	}

	s.Router.Get("/tariffs/countries", validater.Validate(s.handler.HandleCountries()))
	s.Router.Get("/tariffs/prefixes", validater.Validate(s.handler.HandlePrefixes()))
	s.Router.Get("/quote", validater.Validate(s.handler.HandleQuote()))
	s.Router.Get("/quotes", validater.Validate(s.handler.HandleRecentQuotes()))
	s.Router.Delete("/session", validater.Validate(s.handler.HandleEndSession()))
}

func (s *Server) run(runFn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		runFn()
	}()
}

func (s *Server) listenAndServe() error {
	httpServer := &http.Server{
		Addr:              s.addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	startCh := make(chan error, 1)
	go func() {
		s.Logger.Printf("Server.listenAndServe: listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startCh <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	// Wait for either a shutdown signal or an error if the server
	// cannot start.
	select {
	case err := <-startCh:
		s.workerKillCh <- struct{}{}
		s.wg.Wait()
		return err
	case <-s.shutdownCh:
		ctx, cancel := context.WithTimeout(context.Background(), 7*time.Second)
		defer func() {
			defer cancel()

			// Kill background worker.
			s.workerKillCh <- struct{}{}

			// Wait for all resources to stop.
			s.wg.Wait()
		}()

		// Gracefully shutdown the http server.
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}

func (s *Server) validate() error {
	if s.Router == nil {
		return errors.New("router is nil")
	}

	if s.Logger == nil {
		return errors.New("logger is nil")
	}

	if s.Tariffs == nil {
		return errors.New("tariffs is nil")
	}

	if s.Sessions == nil {
		return errors.New("sessions is nil")
	}

	if s.Tokens == nil {
		return errors.New("tokens is nil")
	}

	return nil
}

// Handler validates the server and returns its routes without starting
// the listener or the session sweeper.
func (s *Server) Handler() (http.Handler, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	s.init()
	signal.Stop(s.shutdownCh)

	return s.Router, nil
}

func (s *Server) Start() error {
	if err := s.validate(); err != nil {
		return err
	}

	s.init()
	s.run(func() {
		s.worker.start()
	})

	return s.listenAndServe()
}
