package main

import (
	"context"
	"crypto/rand"
	"flag"
	"log"
	"time"

	"github.com/cicconee/freight-app/internal/config"
	"github.com/cicconee/freight-app/internal/quote"
	"github.com/cicconee/freight-app/internal/server"
	"github.com/cicconee/freight-app/internal/session"
	"github.com/cicconee/freight-app/internal/tariff"
	"github.com/go-chi/chi/v5"
)

var (
	port       string
	configPath string
	envPath    string
)

func main() {
	flag.StringVar(&port, "p", "", "the port the server should listen on (overrides the config)")
	flag.StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	flag.StringVar(&envPath, "env", ".env", "path to an optional .env file")
	flag.Parse()

	logger := log.Default()

	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		log.Fatalln(err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	// The tariff service only records quotes when a database is
	// configured.
	var recorder tariff.Recorder
	var quotes *quote.Service
	if cfg.QuoteLog.Enabled() {
		var closeLog func()
		quotes, closeLog, err = openQuoteLog(cfg.QuoteLog, logger)
		if err != nil {
			log.Fatalln(err)
		}
		defer closeLog()
		recorder = quotes
	}

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalln(err)
		}
		logger.Println("main: no session secret configured, using a random one; sessions end on restart")
	}

	srv := server.Server{
		Addr:        cfg.Server.Port,
		Router:      chi.NewRouter(),
		Interval:    cfg.Session.SweepInterval,
		SessionTTL:  cfg.Session.TTL,
		UploadLimit: cfg.Server.UploadLimitMB << 20,
		Logger:      logger,
		Tariffs:     tariff.New(logger, recorder),
		Sessions:    session.NewStore(),
		Tokens:      session.NewTokens(secret, cfg.Session.TTL),
		Quotes:      quotes,
	}
	if err := srv.Start(); err != nil {
		log.Println(err)
	}
}

// openQuoteLog connects to the quote log database. The returned func
// flushes queued writes and closes the database.
func openQuoteLog(cfg config.QuoteLogConfig, logger *log.Logger) (*quote.Service, func(), error) {
	dialect, err := quote.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := quote.Open(ctx, dialect, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	logger.Printf("main: quote log enabled (driver=%s)", dialect.Driver())
	svc := quote.New(store, logger, cfg.Workers, cfg.Queue)

	return svc, func() {
		svc.Close()
		if err := store.Close(); err != nil {
			logger.Printf("main: failed to close quote log: %v", err)
		}
	}, nil
}
