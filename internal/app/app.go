// Package app is the root of one console instance. It owns the session and
// decides which of the two top-level views is mounted: the login flow or the
// dashboard shell. Exactly one of them exists at any time.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"eduvision/internal/authflow"
	"eduvision/internal/dashboard"
	"eduvision/internal/i18n"
	"eduvision/internal/models"
)

type Top string

const (
	TopLogin     Top = "login"
	TopDashboard Top = "dashboard"
)

var ErrNotLoggedIn = errors.New("app: not logged in")

// API is everything the console reads from or writes to the CRM.
type API interface {
	authflow.API
	ListStaff(ctx context.Context, centerID string) ([]models.StaffMember, error)
}

type Options struct {
	Parent      context.Context
	Language    i18n.Language
	ResetDelay  time.Duration
	PhonePrefix string
}

type App struct {
	api  API
	opts Options

	mu      sync.Mutex
	lang    i18n.Language
	session *models.Session
	login   *authflow.Flow
	shell   *dashboard.Shell
}

// New mounts a fresh login flow.
func New(api API, opts Options) *App {
	if opts.Parent == nil {
		opts.Parent = context.Background()
	}
	lang := opts.Language
	if lang == "" {
		lang = i18n.Default
	}
	a := &App{api: api, opts: opts, lang: lang}
	a.mu.Lock()
	a.mountLogin()
	a.mu.Unlock()
	return a
}

// mountLogin replaces the active view with a brand-new login flow.
// Caller holds a.mu.
func (a *App) mountLogin() {
	var flow *authflow.Flow
	flow = authflow.New(a.api, authflow.Options{
		OnLogin:     func(s models.Session) { a.loggedIn(flow, s) },
		ResetDelay:  a.opts.ResetDelay,
		PhonePrefix: a.opts.PhonePrefix,
		Parent:      a.opts.Parent,
	})
	a.login = flow
	flow.Start()
}

// loggedIn creates the session. A callback from a flow that is no longer
// mounted, or one arriving while a session exists, is ignored.
func (a *App) loggedIn(flow *authflow.Flow, s models.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil || a.login != flow {
		return
	}
	a.session = &s
	a.login = nil
	flow.Close()

	var shell *dashboard.Shell
	shell = dashboard.New(s, a.api, dashboard.Options{
		Parent:   a.opts.Parent,
		OnLogout: func() { a.loggedOut(shell) },
	})
	a.shell = shell
}

func (a *App) loggedOut(shell *dashboard.Shell) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shell != shell {
		return
	}
	a.session = nil
	a.shell = nil
	a.mountLogin()
}

// Logout is the only way to clear the session.
func (a *App) Logout() error {
	shell := a.Shell()
	if shell == nil {
		return ErrNotLoggedIn
	}
	return shell.Logout()
}

func (a *App) Top() Top {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shell != nil {
		return TopDashboard
	}
	return TopLogin
}

// Session returns the current session, if any.
func (a *App) Session() (models.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return models.Session{}, false
	}
	return *a.session, true
}

// Login returns the mounted login flow, or nil while logged in.
func (a *App) Login() *authflow.Flow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.login
}

// Shell returns the mounted dashboard, or nil while logged out.
func (a *App) Shell() *dashboard.Shell {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shell
}

func (a *App) Language() i18n.Language {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lang
}

func (a *App) SetLanguage(lang i18n.Language) {
	a.mu.Lock()
	a.lang = lang
	a.mu.Unlock()
}

// Settle waits for the loads of the mounted view so a render sees their
// results. It gives up when ctx is done.
func (a *App) Settle(ctx context.Context) error {
	a.mu.Lock()
	login, shell := a.login, a.shell
	a.mu.Unlock()

	switch {
	case shell != nil:
		return shell.Wait(ctx)
	case login != nil:
		return login.Wait(ctx)
	}
	return nil
}

// Close unmounts whatever is active. The app is not usable afterwards.
func (a *App) Close() {
	a.mu.Lock()
	login, shell := a.login, a.shell
	a.login, a.shell, a.session = nil, nil, nil
	a.mu.Unlock()

	if login != nil {
		login.Close()
	}
	if shell != nil {
		// The logout callback finds no matching shell and mounts nothing.
		_ = shell.Logout()
	}
}
