package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps one App per browser, keyed by a random id stored in the
// browser's cookie. Nothing survives a restart.
type Registry struct {
	newApp func() *App
	now    func() time.Time

	mu   sync.Mutex
	apps map[string]*entry
}

type entry struct {
	app  *App
	seen time.Time
}

func NewRegistry(newApp func() *App) *Registry {
	return &Registry{
		newApp: newApp,
		now:    time.Now,
		apps:   make(map[string]*entry),
	}
}

// Create builds a new App and returns its id.
func (r *Registry) Create() (string, *App) {
	id := uuid.NewString()
	a := r.newApp()

	r.mu.Lock()
	r.apps[id] = &entry{app: a, seen: r.now()}
	r.mu.Unlock()
	return id, a
}

// Get returns the App for id and marks it as used.
func (r *Registry) Get(id string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.apps[id]
	if !ok {
		return nil, false
	}
	e.seen = r.now()
	return e.app, true
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.apps[id]
	delete(r.apps, id)
	r.mu.Unlock()
	if ok {
		e.app.Close()
	}
}

// Sweep closes and forgets apps unused for longer than maxIdle. It returns
// how many were evicted.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*App
	for id, e := range r.apps {
		if e.seen.Before(cutoff) {
			stale = append(stale, e.app)
			delete(r.apps, id)
		}
	}
	r.mu.Unlock()

	for _, a := range stale {
		a.Close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}
