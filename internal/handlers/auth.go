package handlers

import (
	"errors"
	"log"
	"net/http"

	"eduvision/internal/app"
	"eduvision/internal/authflow"
	"eduvision/internal/i18n"

	"github.com/go-chi/chi/v5"
)

// phonePrefixes — коды стран в форме регистрации.
var phonePrefixes = []string{"+380", "+48", "+49", "+44", "+1"}

// ShowLoginPage отображает вход, регистрацию или восстановление пароля,
// в зависимости от текущего вида.
func (s *Server) ShowLoginPage(w http.ResponseWriter, r *http.Request) {
	a := s.appFor(w, r)
	flow := a.Login()
	if flow == nil {
		redirect(w, r, "/dashboard")
		return
	}
	settle(r, a)

	lang := a.Language()
	st := flow.Snapshot()
	prefixes := phonePrefixes
	if !contains(prefixes, st.Register.PhonePrefix) {
		prefixes = append([]string{st.Register.PhonePrefix}, prefixes...)
	}
	s.render(w, r, "login", lang, map[string]any{
		"Title":         s.tr.T(lang, "login.submit"),
		"State":         st,
		"PhonePrefixes": prefixes,
		"Flash":         s.store.PopNotice(w, r),
	})
}

// HandleAuthView переключает вид: login, register, forgot.
func (s *Server) HandleAuthView(w http.ResponseWriter, r *http.Request) {
	a := s.appFor(w, r)
	flow := a.Login()
	if flow == nil {
		redirect(w, r, "/dashboard")
		return
	}

	var err error
	switch authflow.View(chi.URLParam(r, "view")) {
	case authflow.ViewRegister:
		err = flow.ShowRegister()
	case authflow.ViewForgot:
		err = flow.ShowForgot()
	case authflow.ViewLogin:
		err = flow.Back()
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil && !errors.Is(err, authflow.ErrInvalidTransition) {
		log.Printf("auth view: %v", err)
	}
	redirect(w, r, "/")
}

// HandleLogin обрабатывает POST-запрос входа. Ошибка показывается на
// странице входа через состояние потока.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	a := s.appFor(w, r)
	flow := a.Login()
	if flow == nil {
		redirect(w, r, "/dashboard")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	err := flow.SubmitLogin(r.Context(), authflow.LoginForm{
		Center:   r.FormValue("center"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		logSubmit("login", err)
		redirect(w, r, "/")
		return
	}
	redirect(w, r, "/dashboard")
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	a := s.appFor(w, r)
	flow := a.Login()
	if flow == nil {
		redirect(w, r, "/dashboard")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	err := flow.SubmitRegister(r.Context(), authflow.RegisterForm{
		CenterID:    r.FormValue("center_id"),
		AdminName:   r.FormValue("admin_name"),
		Email:       r.FormValue("email"),
		PhonePrefix: r.FormValue("phone_prefix"),
		PhoneNumber: r.FormValue("phone_number"),
	})
	logSubmit("register", err)
	redirect(w, r, "/")
}

// HandleForgot — заглушка восстановления пароля: запрос никуда не уходит.
func (s *Server) HandleForgot(w http.ResponseWriter, r *http.Request) {
	a := s.appFor(w, r)
	flow := a.Login()
	if flow == nil {
		redirect(w, r, "/dashboard")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	logSubmit("forgot", flow.RequestReset(r.Context(), r.FormValue("email")))
	redirect(w, r, "/")
}

// HandleLanguage переключает язык интерфейса этого браузера.
func (s *Server) HandleLanguage(w http.ResponseWriter, r *http.Request) {
	lang, ok := i18n.Parse(chi.URLParam(r, "code"))
	if !ok {
		http.Error(w, "unsupported language", http.StatusBadRequest)
		return
	}
	a := s.appFor(w, r)
	a.SetLanguage(lang)
	if a.Top() == app.TopDashboard {
		redirect(w, r, "/dashboard")
		return
	}
	redirect(w, r, "/")
}

// logSubmit пишет в лог только неожиданные ошибки: отказ сервера и пустые
// поля пользователь и так видит на странице.
func logSubmit(op string, err error) {
	var verr *authflow.ValidationError
	switch {
	case err == nil, errors.As(err, &verr):
	default:
		log.Printf("auth %s: %v", op, err)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
