package handlers

import (
	"errors"
	"log"
	"net/http"

	"eduvision/internal/settings"

	"github.com/go-chi/chi/v5"
)

type panelAction func(r *http.Request, p *settings.Flow) error

// settingsAction применяет действие к открытой панели настроек и
// возвращает на кабинет. Неготовые действия показывают уведомление.
func (s *Server) settingsAction(action panelAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shell := shellFor(r)
		if shell == nil {
			redirect(w, r, "/")
			return
		}
		panel := shell.Settings()
		if panel == nil {
			redirect(w, r, "/dashboard")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		err := action(r, panel)
		switch {
		case err == nil:
		case errors.Is(err, settings.ErrNotImplemented):
			if err := s.store.SetNotice(w, r, "notice.notImplemented"); err != nil {
				log.Printf("session save error: %v", err)
			}
		case errors.Is(err, settings.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		case errors.Is(err, settings.ErrUnknownTab), errors.Is(err, settings.ErrUnknownCenter):
			http.NotFound(w, r)
			return
		default:
			log.Printf("settings: %v", err)
		}
		redirect(w, r, "/dashboard")
	}
}

func selectMainTab(r *http.Request, p *settings.Flow) error {
	return p.SelectMainTab(settings.MainTab(chi.URLParam(r, "tab")))
}

func selectProfileTab(r *http.Request, p *settings.Flow) error {
	return p.SelectProfileTab(settings.ProfileTab(chi.URLParam(r, "tab")))
}

func selectCenter(r *http.Request, p *settings.Flow) error {
	return p.SelectCenter(chi.URLParam(r, "id"))
}

func selectAdminTab(r *http.Request, p *settings.Flow) error {
	return p.SelectAdminTab(settings.AdminTab(chi.URLParam(r, "tab")))
}

func backToCenters(_ *http.Request, p *settings.Flow) error {
	return p.BackToCenters()
}

func emptyAction(r *http.Request, _ *settings.Flow) error {
	return settings.TriggerEmptyAction(settings.List(chi.URLParam(r, "list")))
}

func saveProfile(r *http.Request, p *settings.Flow) error {
	return p.SaveProfile(settings.ProfileForm{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
		Phone: r.FormValue("phone"),
	})
}

func changePassword(r *http.Request, p *settings.Flow) error {
	return p.ChangePassword(settings.PasswordForm{
		Old:     r.FormValue("old_password"),
		New:     r.FormValue("new_password"),
		Confirm: r.FormValue("confirm_password"),
	})
}

func saveCenterInfo(r *http.Request, p *settings.Flow) error {
	return p.SaveCenterInfo(settings.CenterForm{
		Name:     r.FormValue("name"),
		Address:  r.FormValue("address"),
		Phone:    r.FormValue("phone"),
		Currency: r.FormValue("currency"),
	})
}
