package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"eduvision/internal/app"
	"eduvision/internal/config"
	"eduvision/internal/i18n"
	"eduvision/internal/metrics"
	mw "eduvision/internal/middleware"
	"eduvision/internal/sessions"
	"eduvision/internal/settings"
	"eduvision/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
)

// settleTimeout ограничивает ожидание фоновых загрузок перед рендером.
const settleTimeout = 5 * time.Second

// Server — HTML-фронт консоли. Каждому браузеру соответствует свой
// экземпляр app.App из реестра; в куке хранится только его id.
type Server struct {
	cfg      config.Config
	registry *app.Registry
	store    *sessions.Store
	tr       *i18n.Translator
	metrics  *metrics.Metrics
	pages    map[string]*template.Template
}

func NewServer(cfg config.Config, registry *app.Registry, store *sessions.Store, tr *i18n.Translator, m *metrics.Metrics) (*Server, error) {
	s := &Server{cfg: cfg, registry: registry, store: store, tr: tr, metrics: m, pages: map[string]*template.Template{}}

	// Заглушки: настоящие функции подставляются при каждом рендере под язык.
	funcs := template.FuncMap{
		"t":          func(string) string { return "" },
		"emptyState": emptyState,
	}
	for _, page := range []string{"login", "dashboard"} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(web.Templates, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s templates: %w", page, err)
		}
		s.pages[page] = tmpl
	}
	return s, nil
}

// Router собирает маршруты с базовым набором middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// базовые middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RedirectSlashes) // /path/ -> /path
	r.Use(mw.Metrics(s.metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(g chi.Router) {
		if !s.cfg.HTTPS {
			g.Use(mw.PlaintextHTTP)
		}
		if s.cfg.CSRF {
			key := sha256.Sum256([]byte("csrf:" + s.cfg.SessionSecret))
			g.Use(csrf.Protect(key[:],
				csrf.Secure(s.cfg.HTTPS),
				csrf.Path("/"),
				csrf.FieldName("csrf_token"),
			))
		}

		// ---------- Вход, регистрация, восстановление ----------
		g.Get("/", s.ShowLoginPage)
		g.Post("/auth/view/{view}", s.HandleAuthView)
		g.Post("/auth/login", s.HandleLogin)
		g.Post("/auth/register", s.HandleRegister)
		g.Post("/auth/forgot", s.HandleForgot)
		g.Post("/lang/{code}", s.HandleLanguage)

		// ---------- Кабинет (только с сессией) ----------
		g.Group(func(a chi.Router) {
			a.Use(mw.RequireSession(s.lookup))

			a.Get("/dashboard", s.ShowDashboard)
			a.Post("/dashboard/tab/{tab}", s.HandleTab)
			a.Post("/dashboard/sidebar", s.HandleSidebar)
			a.Post("/dashboard/viewport", s.HandleViewport)
			a.Post("/logout", s.HandleLogout)

			a.Post("/settings/main/{tab}", s.settingsAction(selectMainTab))
			a.Post("/settings/profile/{tab}", s.settingsAction(selectProfileTab))
			a.Post("/settings/centers/{id}", s.settingsAction(selectCenter))
			a.Post("/settings/admin/{tab}", s.settingsAction(selectAdminTab))
			a.Post("/settings/back", s.settingsAction(backToCenters))
			a.Post("/settings/empty/{list}", s.settingsAction(emptyAction))
			a.Post("/settings/profile/save", s.settingsAction(saveProfile))
			a.Post("/settings/security/save", s.settingsAction(changePassword))
			a.Post("/settings/center/save", s.settingsAction(saveCenterInfo))
		})
	})
	return r
}

// lookup находит приложение по куке, не создавая нового.
func (s *Server) lookup(r *http.Request) (*app.App, bool) {
	id, ok := s.store.AppID(r)
	if !ok {
		return nil, false
	}
	return s.registry.Get(id)
}

// appFor возвращает приложение браузера, при необходимости создавая новое.
// Язык нового приложения берётся из Accept-Language.
func (s *Server) appFor(w http.ResponseWriter, r *http.Request) *app.App {
	if a, ok := s.lookup(r); ok {
		return a
	}
	id, a := s.registry.Create()
	if h := r.Header.Get("Accept-Language"); h != "" {
		a.SetLanguage(i18n.Negotiate(h))
	}
	if err := s.store.SetAppID(w, r, id); err != nil {
		log.Printf("session save error: %v", err)
	}
	s.metrics.SetActiveApps(s.registry.Len())
	return a
}

// settle ждёт фоновые загрузки, чтобы страница показала их результат.
func settle(r *http.Request, a *app.App) {
	ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
	defer cancel()
	if err := a.Settle(ctx); err != nil {
		log.Printf("render: loads still pending: %v", err)
	}
}

// render исполняет шаблон страницы с функцией перевода под язык приложения.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, lang i18n.Language, data map[string]any) {
	base, ok := s.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	tmpl, err := base.Clone()
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	tmpl.Funcs(template.FuncMap{"t": s.tr.Func(lang)})

	data["Page"] = page
	data["Lang"] = lang
	data["Languages"] = i18n.Supported
	data["CSRF"] = csrf.TemplateField(r)
	data["Year"] = time.Now().Year()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		log.Printf("render %s: %v", page, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// emptyView — аргумент подшаблона "empty".
type emptyView struct {
	State settings.EmptyState
	CSRF  template.HTML
}

func emptyState(list string, data map[string]any) (emptyView, error) {
	st, err := settings.Empty(settings.List(list))
	if err != nil {
		return emptyView{}, err
	}
	field, _ := data["CSRF"].(template.HTML)
	return emptyView{State: st, CSRF: field}, nil
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
