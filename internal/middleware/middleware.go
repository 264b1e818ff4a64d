package middleware

import (
	"context"
	"net/http"

	"eduvision/internal/app"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
)

type ctxKey struct{}

// AppLookup находит экземпляр консоли текущего браузера.
type AppLookup func(r *http.Request) (*app.App, bool)

// RequireSession пускает дальше только залогиненных; остальных отправляет
// на страницу входа. Найденное приложение кладётся в контекст запроса.
// Позволяет писать: g.Use(middleware.RequireSession(lookup))
func RequireSession(lookup AppLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := lookup(r)
			if !ok || a.Top() != app.TopDashboard {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithApp(r.Context(), a)))
		})
	}
}

func WithApp(ctx context.Context, a *app.App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// AppFrom достаёт приложение, положенное RequireSession.
func AppFrom(ctx context.Context) (*app.App, bool) {
	a, ok := ctx.Value(ctxKey{}).(*app.App)
	return a, ok
}

// RequestObserver — приёмник метрик запросов.
type RequestObserver interface {
	ObserveRequest(method, route string, status int)
}

// Metrics считает запросы по шаблону маршрута chi, а не по сырому пути,
// чтобы id в URL не плодили серии.
func Metrics(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			obs.ObserveRequest(r.Method, route, status)
		})
	}
}

// PlaintextHTTP помечает запрос как пришедший по HTTP, иначе gorilla/csrf
// требует Referer с https и отклоняет формы при локальном запуске.
func PlaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
