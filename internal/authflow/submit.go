package authflow

import (
	"context"
	"strings"
	"time"

	"eduvision/internal/models"
)

// SubmitLogin validates the form and authenticates. On success the session
// is handed to OnLogin; on failure a notice is set and the form keeps its
// values.
func (f *Flow) SubmitLogin(ctx context.Context, form LoginForm) error {
	f.mu.Lock()
	f.login = LoginForm{Center: form.Center, Email: form.Email}
	token, err := f.begin(ViewLogin, &f.loginBusy, loginMissing(form, len(f.centers) > 0))
	f.mu.Unlock()
	if err != nil {
		return err
	}
	defer f.release(token, &f.loginBusy)

	session, err := f.api.Login(ctx, models.Credentials{
		Center:   form.Center,
		Email:    models.NormalizeEmail(form.Email),
		Password: form.Password,
	})

	f.mu.Lock()
	if !f.relevant(token) {
		f.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		f.notice = failureNotice(err, KeyLoginFailed)
		f.mu.Unlock()
		return err
	}
	cb := f.onLogin
	f.mu.Unlock()

	if cb != nil {
		cb(session)
	}
	return nil
}

func loginMissing(form LoginForm, centerRequired bool) []string {
	var missing []string
	if centerRequired && form.Center == "" {
		missing = append(missing, "center")
	}
	if strings.TrimSpace(form.Email) == "" {
		missing = append(missing, "email")
	}
	if form.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// SubmitRegister sends a pending registration request. On success the form
// is cleared, the view returns to login and a success notice is shown.
func (f *Flow) SubmitRegister(ctx context.Context, form RegisterForm) error {
	f.mu.Lock()
	f.register = form
	token, err := f.begin(ViewRegister, &f.registerBusy, registerMissing(form, len(f.centers) > 0))
	f.mu.Unlock()
	if err != nil {
		return err
	}
	defer f.release(token, &f.registerBusy)

	req := models.NewRegistrationRequest(form.CenterID, form.AdminName, form.Email,
		form.PhonePrefix, form.PhoneNumber)
	err = f.api.RegisterCenter(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.relevant(token) {
		return ErrSuperseded
	}
	if err != nil {
		f.notice = failureNotice(err, KeyUnknown)
		return err
	}
	f.register = RegisterForm{CenterID: form.CenterID, PhonePrefix: form.PhonePrefix}
	f.setView(ViewLogin)
	f.notice = &Notice{Kind: NoticeSuccess, Key: KeyRegistered}
	return nil
}

func registerMissing(form RegisterForm, centerRequired bool) []string {
	var missing []string
	if centerRequired && form.CenterID == "" {
		missing = append(missing, "center")
	}
	if strings.TrimSpace(form.AdminName) == "" {
		missing = append(missing, "admin_name")
	}
	if strings.TrimSpace(form.Email) == "" {
		missing = append(missing, "email")
	}
	if form.PhonePrefix == "" {
		missing = append(missing, "phone_prefix")
	}
	if strings.TrimSpace(form.PhoneNumber) == "" {
		missing = append(missing, "phone_number")
	}
	return missing
}

// RequestReset is a placeholder: nothing is sent. After the configured delay
// the flow returns to login with an informational notice.
func (f *Flow) RequestReset(ctx context.Context, email string) error {
	f.mu.Lock()
	f.forgotEmail = email
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = []string{"email"}
	}
	token, err := f.begin(ViewForgot, &f.resetBusy, missing)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	defer f.release(token, &f.resetBusy)

	if f.resetDelay > 0 {
		timer := time.NewTimer(f.resetDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		case <-f.scope.Context().Done():
			return ErrClosed
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.relevant(token) {
		return ErrSuperseded
	}
	f.forgotEmail = ""
	f.setView(ViewLogin)
	f.notice = &Notice{Kind: NoticeInfo, Key: KeyResetSoon}
	return nil
}
