// Package authflow drives the unauthenticated part of the console: the
// login form, center registration and the password-reset placeholder.
//
// The flow is a small state machine over three views. Network calls are the
// only suspension points; the mutex is never held across them, and every
// result is committed only if the view it was issued from is still current
// and the flow is still mounted.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"eduvision/internal/crmapi"
	"eduvision/internal/models"
	"eduvision/internal/view"
)

type View string

const (
	ViewLogin    View = "login"
	ViewRegister View = "register"
	ViewForgot   View = "forgot"
)

// DefaultPhonePrefix is preselected in the registration form.
const DefaultPhonePrefix = "+380"

// Translation keys used for notices.
const (
	KeyLoginFailed    = "errors.loginFailed"
	KeyNetwork        = "errors.network"
	KeyUnknown        = "errors.unknown"
	KeyRegistered     = "register.success"
	KeyResetSoon      = "forgot.comingSoon"
	KeyRequired       = "errors.required"
	KeyCenterRequired = "errors.centerRequired"
)

var (
	ErrInvalidTransition = errors.New("authflow: invalid view transition")
	ErrBusy              = errors.New("authflow: submission already in progress")
	ErrClosed            = errors.New("authflow: flow is closed")
	// ErrSuperseded is returned when a response arrived after the user left
	// the view it belonged to; the response was dropped.
	ErrSuperseded = errors.New("authflow: view changed before the response arrived")
)

// ValidationError lists the required fields that were empty. No request is
// sent when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("authflow: required fields missing: %s", strings.Join(e.Fields, ", "))
}

// API is the slice of the CRM client the flow needs.
type API interface {
	ListCenters(ctx context.Context) ([]models.Center, error)
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
	RegisterCenter(ctx context.Context, req models.RegistrationRequest) error
}

type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a message for the user. Detail is server-provided text and wins
// over the translated Key when set.
type Notice struct {
	Kind   NoticeKind
	Key    string
	Detail string
}

type LoginForm struct {
	Center   string
	Email    string
	Password string
}

type RegisterForm struct {
	CenterID    string
	AdminName   string
	Email       string
	PhonePrefix string
	PhoneNumber string
}

// State is a copy of everything a renderer may show. Passwords never leave
// the flow.
type State struct {
	View           View
	Centers        []models.Center
	CentersLoading bool
	CenterRequired bool
	Login          LoginForm
	Register       RegisterForm
	ForgotEmail    string
	LoginBusy      bool
	RegisterBusy   bool
	ResetBusy      bool
	Notice         *Notice
	Invalid        []string
}

type Options struct {
	// OnLogin receives the new session exactly once, outside the flow's lock.
	OnLogin func(models.Session)
	// ResetDelay is how long the reset placeholder pretends to work.
	ResetDelay  time.Duration
	PhonePrefix string
	// Parent bounds the flow's background loads.
	Parent context.Context
}

type Flow struct {
	api        API
	onLogin    func(models.Session)
	resetDelay time.Duration
	scope      *view.Scope

	mu             sync.Mutex
	gen            view.Generation
	started        bool
	view           View
	centers        []models.Center
	centersLoading bool
	login          LoginForm
	register       RegisterForm
	forgotEmail    string
	loginBusy      bool
	registerBusy   bool
	resetBusy      bool
	notice         *Notice
	invalid        []string
}

func New(api API, opts Options) *Flow {
	prefix := opts.PhonePrefix
	if prefix == "" {
		prefix = DefaultPhonePrefix
	}
	return &Flow{
		api:        api,
		onLogin:    opts.OnLogin,
		resetDelay: opts.ResetDelay,
		scope:      view.NewScope(opts.Parent),
		view:       ViewLogin,
		register:   RegisterForm{PhonePrefix: prefix},
	}
}

// Start mounts the flow: the centers listing is requested once.
func (f *Flow) Start() {
	f.mu.Lock()
	if f.started || !f.scope.Mounted() {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.centersLoading = true
	f.mu.Unlock()

	f.scope.Go(f.fetchCenters)
}

// fetchCenters fails silently: the list stays empty and the form stays usable.
func (f *Flow) fetchCenters(ctx context.Context) {
	centers, err := f.api.ListCenters(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.scope.Mounted() {
		return
	}
	f.centersLoading = false
	if err != nil {
		log.Printf("authflow: fetch centers: %v", err)
		return
	}
	f.centers = centers
}

// Close unmounts the flow. Responses that arrive later are ignored.
func (f *Flow) Close() {
	f.scope.Close()
}

// Wait blocks until background loads have settled or ctx is done.
func (f *Flow) Wait(ctx context.Context) error {
	return f.scope.Wait(ctx)
}

func (f *Flow) ShowRegister() error {
	return f.transition(ViewLogin, ViewRegister)
}

func (f *Flow) ShowForgot() error {
	return f.transition(ViewLogin, ViewForgot)
}

// Back returns to the login view from register or forgot.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.scope.Mounted() {
		return ErrClosed
	}
	if f.view == ViewLogin {
		return ErrInvalidTransition
	}
	f.setView(ViewLogin)
	return nil
}

func (f *Flow) transition(from, to View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.scope.Mounted() {
		return ErrClosed
	}
	if f.view != from {
		return ErrInvalidTransition
	}
	f.setView(to)
	return nil
}

// setView switches views and invalidates submissions issued from the old one.
// Caller holds f.mu.
func (f *Flow) setView(v View) {
	f.gen.Next()
	f.view = v
	f.loginBusy = false
	f.registerBusy = false
	f.resetBusy = false
	f.notice = nil
	f.invalid = nil
}

// begin checks the preconditions of a submission, runs the required-field
// check and marks the submission busy. Caller holds f.mu.
func (f *Flow) begin(want View, busy *bool, missing []string) (uint64, error) {
	if !f.scope.Mounted() {
		return 0, ErrClosed
	}
	if f.view != want {
		return 0, ErrInvalidTransition
	}
	if *busy {
		return 0, ErrBusy
	}
	if len(missing) > 0 {
		f.invalid = missing
		return 0, &ValidationError{Fields: missing}
	}
	*busy = true
	f.notice = nil
	f.invalid = nil
	return f.gen.Current(), nil
}

// release is the deferred cleanup of every submission: the busy flag is
// cleared unless the view was replaced, in which case setView already did it.
func (f *Flow) release(token uint64, busy *bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen.Valid(token) {
		*busy = false
	}
}

// relevant reports whether a result issued under token may be committed.
// Caller holds f.mu.
func (f *Flow) relevant(token uint64) bool {
	return f.scope.Mounted() && f.gen.Valid(token)
}

// failureNotice maps an API error to a notice: the server's detail when it
// gave one, a connectivity message when the request never completed.
func failureNotice(err error, fallbackKey string) *Notice {
	var apiErr *crmapi.APIError
	if errors.As(err, &apiErr) {
		return &Notice{Kind: NoticeError, Key: fallbackKey, Detail: apiErr.Detail}
	}
	return &Notice{Kind: NoticeError, Key: KeyNetwork}
}

// Snapshot returns a copy of the observable state.
func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := State{
		View:           f.view,
		Centers:        append([]models.Center(nil), f.centers...),
		CentersLoading: f.centersLoading,
		CenterRequired: len(f.centers) > 0,
		Login:          LoginForm{Center: f.login.Center, Email: f.login.Email},
		Register:       f.register,
		ForgotEmail:    f.forgotEmail,
		LoginBusy:      f.loginBusy,
		RegisterBusy:   f.registerBusy,
		ResetBusy:      f.resetBusy,
		Invalid:        append([]string(nil), f.invalid...),
	}
	if f.notice != nil {
		n := *f.notice
		st.Notice = &n
	}
	return st
}
