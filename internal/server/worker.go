package server

import (
	"log"
	"time"

	"github.com/cicconee/freight-app/internal/session"
)

// worker ends idle sessions so that their tariffs are released.
type worker struct {
	sessions *session.Store
	logger   *log.Logger
	ttl      time.Duration
	d        time.Duration
	killCh   <-chan struct{}
}

func (w *worker) start() {
	ticker := time.NewTicker(w.d)

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.killCh:
			ticker.Stop()
			return
		}
	}
}

func (w *worker) sweep() {
	if n := w.sessions.Sweep(w.ttl); n > 0 {
		w.logger.Printf("worker.sweep: ended %d idle sessions (remaining=%d)", n, w.sessions.Len())
	}
}
