// Package dashboard is the authenticated shell: sidebar navigation between
// the overview, reports and settings, plus logout.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"eduvision/internal/models"
	"eduvision/internal/settings"
)

type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabReports   Tab = "reports"
	TabSettings  Tab = "settings"
)

// Tabs in sidebar order.
var Tabs = []Tab{TabDashboard, TabReports, TabSettings}

// SidebarBreakpoint is the widest viewport that still collapses the sidebar.
const SidebarBreakpoint = 1024

var (
	ErrUnknownTab = errors.New("dashboard: unknown tab")
	ErrClosed     = errors.New("dashboard: logged out")
)

// Card is a shortcut tile on the overview tab.
type Card struct {
	TitleKey string
	Icon     string
	Target   Tab
}

// Cards of the overview. The students card has no tab of its own yet and
// stays on the overview.
var Cards = []Card{
	{TitleKey: "nav.students", Icon: "user", Target: TabDashboard},
	{TitleKey: "nav.reports", Icon: "bar-chart", Target: TabReports},
	{TitleKey: "nav.settings", Icon: "settings", Target: TabSettings},
}

type Options struct {
	Parent context.Context
	// OnLogout runs once, after the shell has shut its settings panel.
	OnLogout func()
}

type State struct {
	Session     models.Session
	Tab         Tab
	SidebarOpen bool
	Narrow      bool
	Settings    *settings.State
}

type Shell struct {
	api      settings.API
	session  models.Session
	parent   context.Context
	onLogout func()

	mu          sync.Mutex
	closed      bool
	tab         Tab
	sidebarOpen bool
	narrow      bool
	panel       *settings.Flow
}

func New(session models.Session, api settings.API, opts Options) *Shell {
	parent := opts.Parent
	if parent == nil {
		parent = context.Background()
	}
	return &Shell{
		api:         api,
		session:     session,
		parent:      parent,
		onLogout:    opts.OnLogout,
		tab:         TabDashboard,
		sidebarOpen: true,
	}
}

// Select switches the active tab. Entering settings mounts a fresh panel;
// leaving it unmounts the panel so its late loads are dropped.
func (s *Shell) Select(tab Tab) error {
	if !validTab(tab) {
		return ErrUnknownTab
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.narrow {
		s.sidebarOpen = false
	}
	if s.tab == tab {
		return nil
	}
	if s.panel != nil {
		s.panel.Close()
		s.panel = nil
	}
	s.tab = tab
	if tab == TabSettings {
		s.panel = settings.New(s.parent, s.session, s.api)
		s.panel.Start()
	}
	return nil
}

func validTab(tab Tab) bool {
	for _, t := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

// Settings returns the mounted settings panel, or nil outside the settings tab.
func (s *Shell) Settings() *settings.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// SetViewport applies a new viewport width: the sidebar is open on wide
// screens and collapsed on narrow ones.
func (s *Shell) SetViewport(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.narrow = width <= SidebarBreakpoint
	s.sidebarOpen = !s.narrow
}

func (s *Shell) ToggleSidebar() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = !s.sidebarOpen
}

// Logout closes the shell and hands control back through OnLogout. Only the
// first call has an effect.
func (s *Shell) Logout() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	if s.panel != nil {
		s.panel.Close()
		s.panel = nil
	}
	cb := s.onLogout
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// Wait blocks until the settings panel, if mounted, has no load in flight.
func (s *Shell) Wait(ctx context.Context) error {
	if panel := s.Settings(); panel != nil {
		return panel.Wait(ctx)
	}
	return nil
}

func (s *Shell) Snapshot() State {
	s.mu.Lock()
	st := State{
		Session:     s.session,
		Tab:         s.tab,
		SidebarOpen: s.sidebarOpen,
		Narrow:      s.narrow,
	}
	panel := s.panel
	s.mu.Unlock()

	st.Session.Token = ""
	if panel != nil {
		ps := panel.Snapshot()
		st.Settings = &ps
	}
	return st
}
