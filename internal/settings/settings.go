// Package settings is the controller behind the settings area: the user's
// own profile and, for admins and owners, the center administration panel.
package settings

import (
	"context"
	"errors"
	"log"
	"sync"

	"eduvision/internal/models"
	"eduvision/internal/view"
)

type MainTab string

const (
	MainProfile MainTab = "profile"
	MainAdmin   MainTab = "admin"
)

type ProfileTab string

const (
	ProfileInfo     ProfileTab = "info"
	ProfileSecurity ProfileTab = "security"
)

type AdminTab string

const (
	AdminInfo    AdminTab = "info"
	AdminStaff   AdminTab = "staff"
	AdminCourses AdminTab = "courses"
	AdminRooms   AdminTab = "rooms"
	AdminSources AdminTab = "sources"
)

// AdminTabs in display order.
var AdminTabs = []AdminTab{AdminInfo, AdminStaff, AdminCourses, AdminRooms, AdminSources}

var (
	ErrForbidden      = errors.New("settings: admin panel requires an admin or owner role")
	ErrUnknownTab     = errors.New("settings: unknown tab")
	ErrAdminInactive  = errors.New("settings: admin panel is not the active tab")
	ErrNoCenter       = errors.New("settings: no center selected")
	ErrUnknownCenter  = errors.New("settings: unknown center")
	ErrNotImplemented = errors.New("settings: not implemented")
)

// API is the slice of the CRM client the panel reads from.
type API interface {
	ListCenters(ctx context.Context) ([]models.Center, error)
	ListStaff(ctx context.Context, centerID string) ([]models.StaffMember, error)
}

// State is a copy of the panel for rendering.
type State struct {
	Profile    models.Session
	Privileged bool
	MainTabs   []MainTab
	MainTab    MainTab
	ProfileTab ProfileTab
	AdminTab   AdminTab

	Centers        []models.Center
	CentersLoading bool
	Selected       *models.Center
	Staff          []models.StaffMember
	StaffLoading   bool
}

type Flow struct {
	api     API
	session models.Session
	scope   *view.Scope

	mu             sync.Mutex
	started        bool
	centersGen     view.Generation
	staffGen       view.Generation
	mainTab        MainTab
	profileTab     ProfileTab
	adminTab       AdminTab
	centers        []models.Center
	centersLoading bool
	selected       *models.Center
	staff          []models.StaffMember
	staffLoading   bool
}

// New builds the panel for session. Privileged sessions open on the admin
// tab, everyone else on their profile.
func New(parent context.Context, session models.Session, api API) *Flow {
	main := MainProfile
	if session.IsPrivileged() {
		main = MainAdmin
	}
	return &Flow{
		api:        api,
		session:    session,
		scope:      view.NewScope(parent),
		mainTab:    main,
		profileTab: ProfileInfo,
		adminTab:   AdminInfo,
	}
}

// Start mounts the panel and issues the loads of its initial tab.
func (f *Flow) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started || !f.scope.Mounted() {
		return
	}
	f.started = true
	if f.mainTab == MainAdmin {
		f.fetchCenters()
	}
}

// Close unmounts the panel; loads still in flight are ignored when they land.
func (f *Flow) Close() {
	f.scope.Close()
}

func (f *Flow) Wait(ctx context.Context) error {
	return f.scope.Wait(ctx)
}

func (f *Flow) SelectMainTab(tab MainTab) error {
	if tab != MainProfile && tab != MainAdmin {
		return ErrUnknownTab
	}
	if tab == MainAdmin && !f.session.IsPrivileged() {
		return ErrForbidden
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mainTab == tab {
		return nil
	}
	f.mainTab = tab
	if tab == MainAdmin && f.selected == nil {
		f.fetchCenters()
	}
	return nil
}

func (f *Flow) SelectProfileTab(tab ProfileTab) error {
	if tab != ProfileInfo && tab != ProfileSecurity {
		return ErrUnknownTab
	}
	f.mu.Lock()
	f.profileTab = tab
	f.mu.Unlock()
	return nil
}

// SelectCenter opens a center from the loaded list. The previous center's
// staff disappears at once and its pending load can no longer land.
func (f *Flow) SelectCenter(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mainTab != MainAdmin {
		return ErrAdminInactive
	}

	var found *models.Center
	for i := range f.centers {
		if f.centers[i].ID == id {
			c := f.centers[i]
			found = &c
			break
		}
	}
	if found == nil {
		return ErrUnknownCenter
	}

	f.selected = found
	f.resetStaff()
	if f.adminTab == AdminStaff {
		f.fetchStaff(found.ID)
	}
	return nil
}

// SelectAdminTab switches the sub-tab of the selected center. Re-selecting
// the active sub-tab changes nothing.
func (f *Flow) SelectAdminTab(tab AdminTab) error {
	if !validAdminTab(tab) {
		return ErrUnknownTab
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mainTab != MainAdmin {
		return ErrAdminInactive
	}
	if f.selected == nil {
		return ErrNoCenter
	}
	if f.adminTab == tab {
		return nil
	}
	f.adminTab = tab
	f.staffGen.Next()
	f.staffLoading = false
	if tab == AdminStaff {
		f.fetchStaff(f.selected.ID)
	}
	return nil
}

// BackToCenters returns to the center list and drops everything loaded for
// the selected center.
func (f *Flow) BackToCenters() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mainTab != MainAdmin {
		return ErrAdminInactive
	}
	f.selected = nil
	f.resetStaff()
	return nil
}

func validAdminTab(tab AdminTab) bool {
	for _, t := range AdminTabs {
		if t == tab {
			return true
		}
	}
	return false
}

// resetStaff clears the staff list and invalidates its pending load.
// Caller holds f.mu.
func (f *Flow) resetStaff() {
	f.staffGen.Next()
	f.staff = nil
	f.staffLoading = false
}

// fetchCenters starts a centers load. A failure is logged and leaves the
// current list in place. Caller holds f.mu.
func (f *Flow) fetchCenters() {
	token := f.centersGen.Next()
	f.centersLoading = true

	f.scope.Go(func(ctx context.Context) {
		centers, err := f.api.ListCenters(ctx)

		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.scope.Mounted() || !f.centersGen.Valid(token) {
			return
		}
		f.centersLoading = false
		if err != nil {
			log.Printf("settings: fetch centers: %v", err)
			return
		}
		f.centers = centers
	})
}

// fetchStaff starts a staff load for centerID. Only the most recent load may
// write the list. Caller holds f.mu.
func (f *Flow) fetchStaff(centerID string) {
	token := f.staffGen.Next()
	f.staffLoading = true

	f.scope.Go(func(ctx context.Context) {
		staff, err := f.api.ListStaff(ctx, centerID)

		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.scope.Mounted() || !f.staffGen.Valid(token) {
			return
		}
		f.staffLoading = false
		if err != nil {
			log.Printf("settings: fetch staff for center %s: %v", centerID, err)
			return
		}
		f.staff = staff
	})
}

func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := State{
		Profile:        f.session,
		Privileged:     f.session.IsPrivileged(),
		MainTabs:       []MainTab{MainProfile},
		MainTab:        f.mainTab,
		ProfileTab:     f.profileTab,
		AdminTab:       f.adminTab,
		Centers:        append([]models.Center(nil), f.centers...),
		CentersLoading: f.centersLoading,
		Staff:          append([]models.StaffMember(nil), f.staff...),
		StaffLoading:   f.staffLoading,
	}
	st.Profile.Token = ""
	if st.Privileged {
		st.MainTabs = append(st.MainTabs, MainAdmin)
	}
	if f.selected != nil {
		c := *f.selected
		st.Selected = &c
	}
	return st
}
