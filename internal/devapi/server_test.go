package devapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduvision/internal/crmapi"
	"eduvision/internal/models"
)

const testSecret = "jwt-secret"

type fixture struct {
	store  *MemoryStore
	server *Server
	http   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	srv := NewServer(store, testSecret, time.Hour)
	hs := httptest.NewServer(srv.Router())
	t.Cleanup(hs.Close)
	return &fixture{store: store, server: srv, http: hs}
}

func (f *fixture) insert(t *testing.T, table string, row Row) Row {
	t.Helper()
	tbl, err := LookupTable(table)
	if err != nil {
		t.Fatal(err)
	}
	created, err := f.store.Insert(context.Background(), tbl, row)
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, f.http.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func items(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["items"].([]any)
	if !ok {
		t.Fatalf("no items in %v", body)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]any))
	}
	return out
}

func TestListWithFilters(t *testing.T) {
	f := newFixture(t)
	kyiv := f.insert(t, "lc", Row{"id": "c1", "lc_name": "Kyiv Center"})
	f.insert(t, "lc", Row{"id": "c2", "lc_name": "Lviv Center"})
	f.insert(t, "user_staff", Row{"lc_id": kyiv["id"], "user_name": "Anna", "user_mail": "anna@x.ua", "user_pass": "secret"})
	f.insert(t, "user_staff", Row{"lc_id": "c2", "user_name": "Bohdan", "user_mail": "b@x.ua"})

	code, body := f.do(t, http.MethodGet, "/api/pb/lc", nil)
	if code != http.StatusOK {
		t.Fatalf("list lc = %d", code)
	}
	centers := items(t, body)
	if len(centers) != 2 || centers[0]["lc_name"] != "Kyiv Center" || centers[0]["staff_count"] != float64(1) {
		t.Fatalf("centers = %v", centers)
	}

	code, body = f.do(t, http.MethodGet, "/api/pb/user_staff?filters=lc_id:eq:c1", nil)
	if code != http.StatusOK {
		t.Fatalf("list staff = %d", code)
	}
	staff := items(t, body)
	if len(staff) != 1 || staff[0]["user_name"] != "Anna" {
		t.Fatalf("staff = %v", staff)
	}
	if _, leaked := staff[0]["user_pass"]; leaked {
		t.Fatal("password column returned")
	}

	_, body = f.do(t, http.MethodGet, "/api/pb/lc?filters=lc_name:ilike:lviv&filters=id:neq:c1", nil)
	if got := items(t, body); len(got) != 1 || got[0]["id"] != "c2" {
		t.Fatalf("ilike+neq = %v", got)
	}
}

func TestListRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{
		"/api/pb/payments",
		"/api/pb/lc?filters=lc_name:eq",
		"/api/pb/lc?filters=lc_name:regex:x",
		"/api/pb/lc?filters=drop_table:eq:x",
		"/api/pb/user_staff?filters=user_pass:eq:secret",
	} {
		code, body := f.do(t, http.MethodGet, path, nil)
		if code != http.StatusBadRequest || body["detail"] == "" {
			t.Errorf("GET %s = %d %v", path, code, body)
		}
	}
}

func TestCreateAcceptsWrappedAndFlatBodies(t *testing.T) {
	f := newFixture(t)

	code, created := f.do(t, http.MethodPost, "/api/pb/reg", map[string]any{
		"data": map[string]any{"center_id": "c1", "admin_name": "Olena", "email": "o@x.ua", "phone": "+380671234567", "status": "pending"},
	})
	if code != http.StatusCreated || created["id"] == "" || created["admin_name"] != "Olena" {
		t.Fatalf("wrapped create = %d %v", code, created)
	}

	code, created = f.do(t, http.MethodPost, "/api/pb/reg", map[string]any{
		"center_id": "", "admin_name": "Taras", "email": "t@x.ua", "phone": "+48600", "status": "pending",
	})
	if code != http.StatusCreated || created["admin_name"] != "Taras" {
		t.Fatalf("flat create = %d %v", code, created)
	}

	code, _ = f.do(t, http.MethodPost, "/api/pb/reg", map[string]any{"nickname": "x"})
	if code != http.StatusBadRequest {
		t.Fatalf("unknown column = %d", code)
	}

	code, _ = f.do(t, http.MethodPost, "/api/pb/reg", map[string]any{"id": created["id"], "email": "dup@x.ua"})
	if code != http.StatusConflict {
		t.Fatalf("duplicate id = %d", code)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	if err := Seed(context.Background(), f.store, "Owner@Demo.ua", "demo-pass"); err != nil {
		t.Fatal(err)
	}
	if err := Seed(context.Background(), f.store, "owner@demo.ua", "other"); err != nil {
		t.Fatal(err)
	}
	_, body := f.do(t, http.MethodGet, "/api/pb/lc", nil)
	centers := items(t, body)
	if len(centers) != 1 {
		t.Fatalf("seed is not idempotent: %v", centers)
	}
	centerID := centers[0]["id"].(string)

	code, body := f.do(t, http.MethodPost, "/api/login", loginRequest{Email: "  OWNER@demo.ua ", Password: "demo-pass"})
	if code != http.StatusOK || body["status"] != "ok" || body["collection"] != "user_staff" {
		t.Fatalf("login = %d %v", code, body)
	}
	user := body["user"].(map[string]any)
	if user["user_role"] != "owner" || user["user_name"] != "Demo Owner" {
		t.Fatalf("user = %v", user)
	}
	if _, leaked := user["user_pass"]; leaked {
		t.Fatal("password returned by login")
	}

	claims, err := ParseToken(testSecret, body["token"].(string), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != "owner" || claims.CenterID != centerID || claims.UserID == "" {
		t.Fatalf("claims = %+v", claims)
	}
	if _, err := ParseToken("other-secret", body["token"].(string), time.Now()); err == nil {
		t.Fatal("token accepted with a foreign secret")
	}
	if _, err := ParseToken(testSecret, body["token"].(string), time.Now().Add(2*time.Hour)); err == nil {
		t.Fatal("expired token accepted")
	}

	tests := []struct {
		name string
		req  loginRequest
	}{
		{"wrong password", loginRequest{Email: "owner@demo.ua", Password: "nope"}},
		{"unknown email", loginRequest{Email: "ghost@demo.ua", Password: "demo-pass"}},
		{"other center", loginRequest{Center: "elsewhere", Email: "owner@demo.ua", Password: "demo-pass"}},
	}
	for _, tc := range tests {
		code, body := f.do(t, http.MethodPost, "/api/login", tc.req)
		if code != http.StatusUnauthorized || body["detail"] != invalidCredentials {
			t.Errorf("%s: %d %v", tc.name, code, body)
		}
	}

	code, _ = f.do(t, http.MethodPost, "/api/login", loginRequest{Center: centerID, Email: "owner@demo.ua", Password: "demo-pass"})
	if code != http.StatusOK {
		t.Fatalf("login with own center = %d", code)
	}
}

func TestLegacyPasswordUpgrade(t *testing.T) {
	f := newFixture(t)
	f.insert(t, "user_staff", Row{"id": "u1", "user_mail": "legacy@x.ua", "user_name": "Legacy", "user_role": "admin", "user_pass": "plain"})

	code, _ := f.do(t, http.MethodPost, "/api/login", loginRequest{Email: "legacy@x.ua", Password: "plain"})
	if code != http.StatusOK {
		t.Fatalf("legacy login = %d", code)
	}
	user, err := f.store.FindStaffByEmail(context.Background(), "legacy@x.ua")
	if err != nil {
		t.Fatal(err)
	}
	if !isBcryptHash(user["user_pass"].(string)) {
		t.Fatalf("password not upgraded: %q", user["user_pass"])
	}

	code, _ = f.do(t, http.MethodPost, "/api/login", loginRequest{Email: "legacy@x.ua", Password: "plain"})
	if code != http.StatusOK {
		t.Fatalf("login after upgrade = %d", code)
	}
}

// TestConsoleClientAgainstDevAPI runs the console's API client against the
// stand-in server end to end.
func TestConsoleClientAgainstDevAPI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := Seed(ctx, f.store, "owner@demo.ua", "demo-pass"); err != nil {
		t.Fatal(err)
	}
	client := crmapi.New(f.http.URL + "/")

	centers, err := client.ListCenters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(centers) != 1 || centers[0].Name != "Demo Center" || centers[0].StaffCount != 1 {
		t.Fatalf("centers = %+v", centers)
	}

	session, err := client.Login(ctx, models.Credentials{Center: centers[0].ID, Email: "owner@demo.ua", Password: "demo-pass"})
	if err != nil {
		t.Fatal(err)
	}
	if session.Name != "Demo Owner" || !session.IsPrivileged() || session.Token == "" {
		t.Fatalf("session = %+v", session)
	}

	staff, err := client.ListStaff(ctx, centers[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(staff) != 1 || staff[0].Email != "owner@demo.ua" || staff[0].Role != "owner" {
		t.Fatalf("staff = %+v", staff)
	}

	req := models.NewRegistrationRequest(centers[0].ID, "Olena", "o@x.ua", "+380", "67 123 45 67")
	if err := client.RegisterCenter(ctx, req); err != nil {
		t.Fatal(err)
	}
	regs, _ := f.store.List(ctx, tables["reg"], nil)
	if len(regs) != 1 || regs[0]["phone"] != "+380671234567" || regs[0]["status"] != "pending" {
		t.Fatalf("registrations = %v", regs)
	}

	_, err = client.Login(ctx, models.Credentials{Email: "owner@demo.ua", Password: "bad"})
	var apiErr *crmapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Detail != invalidCredentials {
		t.Fatalf("bad login err = %v", err)
	}
}
