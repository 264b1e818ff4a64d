package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScopeWaitSettlesAfterJobs(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	var ran atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		s.Go(func(ctx context.Context) {
			<-release
			ran.Add(1)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to time out while jobs block, got %v", err)
	}

	close(release)
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if ran.Load() != 3 {
		t.Fatalf("expected 3 jobs, got %d", ran.Load())
	}
}

func TestScopeWaitWithoutJobs(t *testing.T) {
	s := NewScope(context.Background())
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("idle scope must settle immediately: %v", err)
	}
}

func TestScopeCloseCancelsJobs(t *testing.T) {
	s := NewScope(context.Background())

	cancelled := make(chan struct{})
	s.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})

	s.Close()
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled")
	}
	if s.Mounted() {
		t.Fatal("closed scope must report unmounted")
	}

	var started atomic.Bool
	s.Go(func(context.Context) { started.Store(true) })
	s.Drain()
	if started.Load() {
		t.Fatal("jobs started after Close must be dropped")
	}
}

func TestGeneration(t *testing.T) {
	var g Generation
	token := g.Current()
	if !g.Valid(token) {
		t.Fatal("fresh token must be valid")
	}
	next := g.Next()
	if g.Valid(token) || !g.Valid(next) {
		t.Fatal("Next must invalidate previous tokens")
	}
}
