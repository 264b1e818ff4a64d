package devapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBody = 1 << 20

type Server struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewServer(store Store, secret string, ttl time.Duration) *Server {
	return &Server{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/login", s.handleLogin)
	r.Get("/api/pb/{table}", s.handleList)
	r.Post("/api/pb/{table}", s.handleCreate)
	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	t, err := LookupTable(chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters, err := ParseFilters(t, r.URL.Query()["filters"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.store.List(r.Context(), t, filters)
	if err != nil {
		log.Printf("devapi: %v", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	items := make([]Row, 0, len(rows))
	for _, row := range rows {
		items = append(items, t.visible(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleCreate accepts {"data":{...}} or the bare object.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	t, err := LookupTable(chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload := body
	if data, ok := body["data"].(map[string]any); ok && len(body) == 1 {
		payload = data
	}
	row, err := t.normalizeInput(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.Insert(r.Context(), t, row)
	switch {
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, "record with this id already exists")
		return
	case err != nil:
		log.Printf("devapi: %v", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusCreated, t.visible(created))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.authenticate(r.Context(), req)
	if errors.Is(err, errInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if err != nil {
		log.Printf("devapi: login: %v", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		log.Printf("devapi: sign token: %v", err)
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"collection": "user_staff",
		"token":      token,
		"user":       tables["user_staff"].visible(user),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
