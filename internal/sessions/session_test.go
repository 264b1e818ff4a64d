package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// roundTrip replays the cookies set by a response on a fresh request.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestAppIDRoundTrip(t *testing.T) {
	s := New("secret", false)

	if _, ok := s.AppID(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("app id without cookie")
	}

	rec := httptest.NewRecorder()
	if err := s.SetAppID(rec, httptest.NewRequest(http.MethodGet, "/", nil), "abc"); err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionName || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := roundTrip(rec)
	if id, ok := s.AppID(req); !ok || id != "abc" {
		t.Fatalf("AppID = %q, %v", id, ok)
	}

	rec2 := httptest.NewRecorder()
	if err := s.ClearAppID(rec2, req); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.AppID(roundTrip(rec2)); ok {
		t.Fatal("app id survived ClearAppID")
	}
}

func TestForeignSecretIsIgnored(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := New("one", false).SetAppID(rec, httptest.NewRequest(http.MethodGet, "/", nil), "abc"); err != nil {
		t.Fatal(err)
	}
	other := New("two", false)
	req := roundTrip(rec)
	if _, ok := other.AppID(req); ok {
		t.Fatal("cookie sealed with another secret was accepted")
	}
	if err := other.SetAppID(httptest.NewRecorder(), req, "def"); err != nil {
		t.Fatalf("overwriting a foreign cookie: %v", err)
	}
}

func TestNoticeShownOnce(t *testing.T) {
	s := New("secret", false)
	rec := httptest.NewRecorder()
	if err := s.SetNotice(rec, httptest.NewRequest(http.MethodPost, "/", nil), "notice.notImplemented"); err != nil {
		t.Fatal(err)
	}

	req := roundTrip(rec)
	rec2 := httptest.NewRecorder()
	if got := s.PopNotice(rec2, req); got != "notice.notImplemented" {
		t.Fatalf("notice = %q", got)
	}
	if again := s.PopNotice(httptest.NewRecorder(), roundTrip(rec2)); again != "" {
		t.Fatalf("notice shown twice: %q", again)
	}
}
