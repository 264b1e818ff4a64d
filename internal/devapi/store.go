package devapi

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("devapi: not found")
	ErrDuplicate = errors.New("devapi: duplicate id")
)

// Store persists the known tables.
type Store interface {
	List(ctx context.Context, t Table, filters []Filter) ([]Row, error)
	Insert(ctx context.Context, t Table, row Row) (Row, error)
	// FindStaffByEmail matches user_mail trimmed and lower-cased, hidden
	// columns included.
	FindStaffByEmail(ctx context.Context, email string) (Row, error)
	SetStaffPassword(ctx context.Context, id, hash string) error
}

// MemoryStore keeps rows in insertion order. Used by tests and by the
// devapi binary when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]Row)}
}

func (m *MemoryStore) List(_ context.Context, t Table, filters []Filter) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Row{}
	for _, r := range m.rows[t.Name] {
		if matchAll(r, filters) {
			out = append(out, m.decorate(t, r))
		}
	}
	return out, nil
}

func matchAll(r Row, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

// decorate copies the row and fills computed columns. Caller holds m.mu.
func (m *MemoryStore) decorate(t Table, r Row) Row {
	out := make(Row, len(t.Columns)+len(t.Computed))
	for _, c := range t.Columns {
		if v, ok := r[c]; ok {
			out[c] = v
		} else {
			out[c] = ""
		}
	}
	if contains(t.Computed, "staff_count") {
		n := 0
		for _, s := range m.rows["user_staff"] {
			if s["lc_id"] == r["id"] {
				n++
			}
		}
		out["staff_count"] = int64(n)
	}
	return out
}

func (m *MemoryStore) Insert(_ context.Context, t Table, row Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(Row, len(row)+1)
	for k, v := range row {
		stored[k] = v
	}
	if id, _ := stored["id"].(string); id == "" {
		stored["id"] = uuid.NewString()
	}
	for _, r := range m.rows[t.Name] {
		if r["id"] == stored["id"] {
			return nil, ErrDuplicate
		}
	}
	m.rows[t.Name] = append(m.rows[t.Name], stored)
	return m.decorate(t, stored), nil
}

func (m *MemoryStore) FindStaffByEmail(_ context.Context, email string) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := normalizeEmail(email)
	for _, r := range m.rows["user_staff"] {
		if mail, _ := r["user_mail"].(string); normalizeEmail(mail) == want {
			return m.decorate(tables["user_staff"], r), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SetStaffPassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows["user_staff"] {
		if r["id"] == id {
			r["user_pass"] = hash
			return nil
		}
	}
	return ErrNotFound
}
