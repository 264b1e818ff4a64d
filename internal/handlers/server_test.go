package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"eduvision/internal/app"
	"eduvision/internal/config"
	"eduvision/internal/crmapi"
	"eduvision/internal/i18n"
	"eduvision/internal/metrics"
	"eduvision/internal/models"
	"eduvision/internal/sessions"
)

type fakeAPI struct{}

func (fakeAPI) ListCenters(context.Context) ([]models.Center, error) {
	return []models.Center{{ID: "c1", Name: "Kyiv Center", Currency: models.DefaultCurrency}}, nil
}

func (fakeAPI) ListStaff(_ context.Context, centerID string) ([]models.StaffMember, error) {
	if centerID != "c1" {
		return nil, nil
	}
	return []models.StaffMember{{ID: "s1", Name: "Anna Koval", Email: "anna@x.ua", Role: "teacher"}}, nil
}

func (fakeAPI) Login(_ context.Context, creds models.Credentials) (models.Session, error) {
	if creds.Password != "secret" {
		return models.Session{}, &crmapi.APIError{Status: 401, Detail: "Invalid email or password"}
	}
	return models.Session{Name: "Olena", Email: creds.Email, Role: models.RoleOwner, Token: "jwt"}, nil
}

func (fakeAPI) RegisterCenter(context.Context, models.RegistrationRequest) error {
	return nil
}

type console struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newConsole(t *testing.T, csrfOn bool) *console {
	t.Helper()
	cfg := config.Config{SessionSecret: "test-secret", CSRF: csrfOn, Language: i18n.English}
	tr, err := i18n.New()
	if err != nil {
		t.Fatal(err)
	}
	registry := app.NewRegistry(func() *app.App {
		return app.New(fakeAPI{}, app.Options{Language: cfg.Language})
	})
	s, err := NewServer(cfg, registry, sessions.New(cfg.SessionSecret, false), tr, metrics.New())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &console{t: t, srv: srv, client: &http.Client{Jar: jar}}
}

func (c *console) get(path string) (int, string) {
	c.t.Helper()
	resp, err := c.client.Get(c.srv.URL + path)
	if err != nil {
		c.t.Fatal(err)
	}
	return read(c.t, resp)
}

func (c *console) post(path string, form url.Values) (int, string) {
	c.t.Helper()
	resp, err := c.client.PostForm(c.srv.URL+path, form)
	if err != nil {
		c.t.Fatal(err)
	}
	return read(c.t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func mustContain(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Errorf("page does not contain %q", p)
		}
	}
}

func TestLoginPageListsCenters(t *testing.T) {
	c := newConsole(t, false)
	code, body := c.get("/")
	if code != http.StatusOK {
		t.Fatalf("GET / = %d", code)
	}
	mustContain(t, body, "Kyiv Center", "Login to System", `name="center"`, "required")
}

func TestDashboardRequiresSession(t *testing.T) {
	c := newConsole(t, false)
	_, body := c.get("/dashboard")
	mustContain(t, body, "Login to System")
}

func TestLoginFailureShowsServerDetail(t *testing.T) {
	c := newConsole(t, false)
	c.get("/")
	_, body := c.post("/auth/login", url.Values{"center": {"c1"}, "email": {"o@x.ua"}, "password": {"wrong"}})
	mustContain(t, body, "Invalid email or password", `value="o@x.ua"`)
}

func TestLoginSettingsAndLogout(t *testing.T) {
	c := newConsole(t, false)
	c.get("/")

	_, body := c.post("/auth/login", url.Values{"center": {"c1"}, "email": {" O@X.UA "}, "password": {"secret"}})
	mustContain(t, body, "Welcome back,", "Olena")

	_, body = c.post("/dashboard/tab/settings", nil)
	mustContain(t, body, "Admin Panel", "Kyiv Center")

	c.post("/settings/centers/c1", nil)
	_, body = c.post("/settings/admin/staff", nil)
	mustContain(t, body, "Anna Koval", "anna@x.ua")

	_, body = c.post("/settings/admin/courses", nil)
	mustContain(t, body, "No courses added yet", "Add the first course")

	_, body = c.post("/settings/empty/courses", nil)
	mustContain(t, body, "Not implemented yet.")

	_, body = c.post("/settings/center/save", url.Values{"name": {"New name"}})
	mustContain(t, body, "Not implemented yet.", "Kyiv Center")

	code, _ := c.post("/settings/centers/missing", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown center = %d", code)
	}

	_, body = c.post("/logout", nil)
	mustContain(t, body, "Login to System")
	_, body = c.get("/dashboard")
	mustContain(t, body, "Login to System")
}

func TestViewSwitchAndRegister(t *testing.T) {
	c := newConsole(t, false)
	c.get("/")

	_, body := c.post("/auth/view/register", nil)
	mustContain(t, body, "Center Registration", `name="admin_name"`, "+380")

	_, body = c.post("/auth/register", url.Values{
		"center_id": {"c1"}, "admin_name": {"Olena"}, "email": {"o@x.ua"},
		"phone_prefix": {"+380"}, "phone_number": {"67 123 45 67"},
	})
	mustContain(t, body, "Application sent!", "Login to System")

	code, _ := c.post("/auth/view/nowhere", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown view = %d", code)
	}
}

func TestLanguageSwitch(t *testing.T) {
	c := newConsole(t, false)
	_, body := c.post("/lang/uk", nil)
	if strings.Contains(body, "Login to System") {
		t.Fatal("page still in English after switching to Ukrainian")
	}
	mustContain(t, body, `lang="uk"`)

	code, _ := c.post("/lang/fr", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("unsupported language = %d", code)
	}
}

func TestCSRFRejectsFormsWithoutToken(t *testing.T) {
	c := newConsole(t, true)
	_, body := c.get("/")
	mustContain(t, body, `name="csrf_token"`)

	code, _ := c.post("/auth/login", url.Values{"email": {"o@x.ua"}, "password": {"secret"}})
	if code != http.StatusForbidden {
		t.Fatalf("POST without token = %d, want 403", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	c := newConsole(t, false)
	code, body := c.get("/health")
	if code != http.StatusOK || body != "ok" {
		t.Fatalf("health = %d %q", code, body)
	}
	c.get("/")
	_, body = c.get("/metrics")
	mustContain(t, body, "eduvision_http_requests_total", `route="/"`)
}
