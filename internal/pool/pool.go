// Package pool runs jobs on a fixed number of goroutines.
package pool

import "sync"

type Pool struct {
	workers int
	jobCh   chan func()
	wg      sync.WaitGroup
	once    sync.Once
}

// New returns a pool with workerCount goroutines and a job queue of
// jobChanSize. Start must be called before jobs run.
func New(workerCount int, jobChanSize int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	return &Pool{
		workers: workerCount,
		jobCh:   make(chan func(), jobChanSize),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobCh {
				job()
			}
		}()
	}
}

// Add queues f. It blocks while the queue is full.
func (p *Pool) Add(f func()) {
	p.jobCh <- f
}

// TryAdd queues f unless the queue is full. It reports whether f was
// queued.
func (p *Pool) TryAdd(f func()) bool {
	select {
	case p.jobCh <- f:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits until every queued job has run. No
// jobs may be added after Stop.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.jobCh)
	})
	p.wg.Wait()
}
