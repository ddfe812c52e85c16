package quote

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cicconee/freight-app/internal/pool"
	"github.com/cicconee/freight-app/internal/tariff"
)

// QuoteStore is the interface that wraps the quote log storage.
type QuoteStore interface {
	InsertQuote(ctx context.Context, q Quote) error
	SelectRecent(ctx context.Context, session string, limit int) ([]Quote, error)
}

// Service writes quotes to the log in the background so that a slow
// database never delays a price lookup.
type Service struct {
	Store   QuoteStore
	Pool    *pool.Pool
	Logger  *log.Logger
	Timeout time.Duration
}

// New returns a started Service. Close must be called to flush
// queued writes.
func New(store QuoteStore, l *log.Logger, workers int, queue int) *Service {
	p := pool.New(workers, queue)
	p.Start()

	return &Service{
		Store:   store,
		Pool:    p,
		Logger:  l,
		Timeout: 5 * time.Second,
	}
}

// Record queues r for writing. If the queue is full the quote is
// dropped and logged. The request context is not used for the write
// since the request usually ends first.
func (s *Service) Record(_ context.Context, session string, source string, r tariff.Result) {
	q := FromResult(session, source, r)

	ok := s.Pool.TryAdd(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()

		if err := s.Store.InsertQuote(ctx, q); err != nil {
			s.Logger.Printf("quote.Service.Record: failed to insert quote (source=%q, zone=%s): %v", q.Source, q.ZoneCode, err)
		}
	})
	if !ok {
		s.Logger.Printf("quote.Service.Record: queue full, dropping quote (source=%q, zone=%s)", q.Source, q.ZoneCode)
	}
}

// Recent returns up to limit logged quotes of session, newest first.
func (s *Service) Recent(ctx context.Context, session string, limit int) ([]Quote, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	quotes, err := s.Store.SelectRecent(ctx, session, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting recent quotes (limit=%d): %w", limit, err)
	}

	return quotes, nil
}

// Close waits for queued writes to finish.
func (s *Service) Close() {
	s.Pool.Stop()
}
