package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"eduvision/internal/app"
	"eduvision/internal/authflow"
	"eduvision/internal/models"

	"github.com/go-chi/chi/v5"
)

type nopAPI struct{}

func (nopAPI) ListCenters(context.Context) ([]models.Center, error) { return nil, nil }
func (nopAPI) ListStaff(context.Context, string) ([]models.StaffMember, error) {
	return nil, nil
}
func (nopAPI) Login(context.Context, models.Credentials) (models.Session, error) {
	return models.Session{Name: "Olena", Role: models.RoleOwner}, nil
}
func (nopAPI) RegisterCenter(context.Context, models.RegistrationRequest) error { return nil }

func TestRequireSession(t *testing.T) {
	a := app.New(nopAPI{}, app.Options{})
	lookup := func(*http.Request) (*app.App, bool) { return a, true }

	var reached bool
	h := RequireSession(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := AppFrom(r.Context())
		reached = ok && got == a
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" || reached {
		t.Fatalf("logged-out request: code=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}

	if err := a.Login().SubmitLogin(context.Background(), authLogin()); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if !reached {
		t.Fatalf("logged-in request did not reach the handler (code %d)", rec.Code)
	}
}

type observed struct {
	method, route string
	status        int
}

type fakeObserver struct{ got []observed }

func (f *fakeObserver) ObserveRequest(method, route string, status int) {
	f.got = append(f.got, observed{method, route, status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &fakeObserver{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Post("/settings/centers/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/settings/centers/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	want := []observed{
		{"POST", "/settings/centers/{id}", http.StatusSeeOther},
		{"GET", "/health", http.StatusOK},
	}
	if len(obs.got) != len(want) {
		t.Fatalf("observed %+v", obs.got)
	}
	for i := range want {
		if obs.got[i] != want[i] {
			t.Errorf("observation %d = %+v, want %+v", i, obs.got[i], want[i])
		}
	}
}

func authLogin() authflow.LoginForm {
	return authflow.LoginForm{Email: "o@x.ua", Password: "pw"}
}
