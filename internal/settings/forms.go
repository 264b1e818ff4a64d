package settings

// The settings forms are rendered but not connected to any endpoint.
// Submitting them validates nothing and sends nothing.

type ProfileForm struct {
	Name  string
	Email string
	Phone string
}

type PasswordForm struct {
	Old     string
	New     string
	Confirm string
}

type CenterForm struct {
	Name     string
	Address  string
	Phone    string
	Currency string
}

func (f *Flow) SaveProfile(ProfileForm) error {
	return ErrNotImplemented
}

func (f *Flow) ChangePassword(PasswordForm) error {
	return ErrNotImplemented
}

func (f *Flow) SaveCenterInfo(CenterForm) error {
	return ErrNotImplemented
}
