package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"eduvision/internal/dashboard"
	mw "eduvision/internal/middleware"
	"eduvision/internal/settings"

	"github.com/go-chi/chi/v5"
)

// shellFor достаёт оболочку кабинета; nil, если в соседней вкладке
// уже вышли.
func shellFor(r *http.Request) *dashboard.Shell {
	a, ok := mw.AppFrom(r.Context())
	if !ok {
		return nil
	}
	return a.Shell()
}

func (s *Server) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	a, _ := mw.AppFrom(r.Context())
	shell := shellFor(r)
	if shell == nil {
		redirect(w, r, "/")
		return
	}
	settle(r, a)

	lang := a.Language()
	st := shell.Snapshot()
	s.render(w, r, "dashboard", lang, map[string]any{
		"Title":     s.tr.T(lang, "nav."+string(st.Tab)),
		"Shell":     st,
		"Tabs":      dashboard.Tabs,
		"Cards":     dashboard.Cards,
		"AdminTabs": settings.AdminTabs,
		"Flash":     s.store.PopNotice(w, r),
	})
}

func (s *Server) HandleTab(w http.ResponseWriter, r *http.Request) {
	shell := shellFor(r)
	if shell == nil {
		redirect(w, r, "/")
		return
	}
	err := shell.Select(dashboard.Tab(chi.URLParam(r, "tab")))
	if errors.Is(err, dashboard.ErrUnknownTab) {
		http.NotFound(w, r)
		return
	}
	redirect(w, r, "/dashboard")
}

func (s *Server) HandleSidebar(w http.ResponseWriter, r *http.Request) {
	if shell := shellFor(r); shell != nil {
		shell.ToggleSidebar()
	}
	redirect(w, r, "/dashboard")
}

// HandleViewport принимает ширину окна от клиента (поле width).
func (s *Server) HandleViewport(w http.ResponseWriter, r *http.Request) {
	width, err := strconv.Atoi(r.FormValue("width"))
	if err != nil || width <= 0 {
		http.Error(w, "bad width", http.StatusBadRequest)
		return
	}
	if shell := shellFor(r); shell != nil {
		shell.SetViewport(width)
	}
	redirect(w, r, "/dashboard")
}

// HandleLogout — единственный способ завершить сессию.
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a, _ := mw.AppFrom(r.Context())
	if err := a.Logout(); err != nil {
		log.Printf("logout: %v", err)
	}
	redirect(w, r, "/")
}
