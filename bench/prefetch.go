package bench

import (
	"io"
	"sync"
)

type prefetched struct {
	n   int
	err error
}

// PrefetchSource decouples batch production from the measurement loop
// with a bounded queue filled by a background goroutine, modelling a
// worker-backed loader. Batch order is preserved; Next blocks when the
// queue is empty, which is exactly the stall the loop should measure.
type PrefetchSource struct {
	inner BatchSource
	depth int

	ch      chan prefetched
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewPrefetchSource wraps inner with a queue of the given depth. A
// depth below 1 is raised to 1.
func NewPrefetchSource(inner BatchSource, depth int) *PrefetchSource {
	if depth < 1 {
		depth = 1
	}
	return &PrefetchSource{inner: inner, depth: depth}
}

func (s *PrefetchSource) Name() string { return s.inner.Name() }

func (s *PrefetchSource) start() {
	s.ch = make(chan prefetched, s.depth)
	s.stop = make(chan struct{})
	s.started = true

	s.wg.Add(1)
	go func(ch chan<- prefetched, stop <-chan struct{}) {
		defer s.wg.Done()
		for {
			n, err := s.inner.Next()
			select {
			case ch <- prefetched{n: n, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}(s.ch, s.stop)
}

// Next returns the next prefetched batch, starting the producer on
// first use. After io.EOF the producer has exited; Reset restarts it.
func (s *PrefetchSource) Next() (int, error) {
	if !s.started {
		s.start()
	}
	p := <-s.ch
	if p.err != nil {
		s.halt()
	}
	return p.n, p.err
}

// Reset stops the producer, rewinds the inner source, and leaves the
// pipeline ready to restart on the next pull. Prefetched batches from
// the previous pass are discarded.
func (s *PrefetchSource) Reset() error {
	s.halt()
	return s.inner.Reset()
}

// Close stops the producer and closes the inner source if it holds
// external resources.
func (s *PrefetchSource) Close() error {
	s.halt()
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *PrefetchSource) halt() {
	if !s.started {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.started = false
}
