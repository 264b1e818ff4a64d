// Package view provides the lifecycle pieces shared by the console's view
// controllers: a mount scope for background loads and a generation counter
// that lets a finished load detect it has been superseded.
package view

import (
	"context"
	"sync"
)

// Scope ties background work to a mounted view. Closing the scope cancels
// the context handed to every job, so in-flight requests are aborted.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

func NewScope(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	idle := make(chan struct{})
	close(idle)
	return &Scope{ctx: ctx, cancel: cancel, idle: idle}
}

// Context is cancelled when the scope closes.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Mounted reports whether Close has not been called yet.
func (s *Scope) Mounted() bool {
	return s.ctx.Err() == nil
}

// Go runs fn on its own goroutine. Calls after Close are dropped.
func (s *Scope) Go(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.done()
		fn(s.ctx)
	}()
}

func (s *Scope) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

// Wait blocks until no job is running or ctx is done.
func (s *Scope) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
			s.mu.Lock()
			settled := s.pending == 0
			s.mu.Unlock()
			if settled {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels the scope. It does not wait for running jobs; their results
// are expected to be discarded by the owner's mounted/generation checks.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}

// Drain closes the scope and waits for every job to return.
func (s *Scope) Drain() {
	s.Close()
	s.wg.Wait()
}
