package sessions

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "console_session"
	appIDKey    = "app_id"
	noticeKey   = "notice"
)

// Store — зашифрованная кука браузера. В ней лежит только идентификатор
// экземпляра консоли; сама сессия сотрудника живёт в памяти процесса.
type Store struct {
	cookies *sessions.CookieStore
}

// New делает 2 ключа из секрета: подпись + шифрование.
func New(secret string, secure bool) *Store {
	h := sha256.Sum256([]byte("auth:" + secret))
	e := sha256.Sum256([]byte("enc:" + secret))

	cs := sessions.NewCookieStore(h[:], e[:])
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // 7 дней
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure, // за HTTPS-прокси — true
	}
	return &Store{cookies: cs}
}

// get никогда не возвращает nil: битая кука (например, после смены секрета)
// даёт пустую сессию, которую можно перезаписать. gorilla кэширует сессию
// на время запроса, так что все вызовы видят один и тот же объект.
func (s *Store) get(r *http.Request) *sessions.Session {
	sess, _ := s.cookies.Get(r, sessionName)
	if sess == nil {
		sess = sessions.NewSession(s.cookies, sessionName)
		opts := *s.cookies.Options
		sess.Options = &opts
	}
	return sess
}

func (s *Store) SetAppID(w http.ResponseWriter, r *http.Request, id string) error {
	sess := s.get(r)
	sess.Values[appIDKey] = id
	return sess.Save(r, w)
}

func (s *Store) AppID(r *http.Request) (string, bool) {
	sess := s.get(r)
	id, ok := sess.Values[appIDKey].(string)
	return id, ok && id != ""
}

func (s *Store) ClearAppID(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	delete(sess.Values, appIDKey)
	return sess.Save(r, w)
}

// SetNotice кладёт ключ перевода для показа на следующей странице.
func (s *Store) SetNotice(w http.ResponseWriter, r *http.Request, key string) error {
	sess := s.get(r)
	sess.Values[noticeKey] = key
	return sess.Save(r, w)
}

// PopNotice забирает ключ уведомления; оно показывается один раз.
func (s *Store) PopNotice(w http.ResponseWriter, r *http.Request) string {
	sess := s.get(r)
	key, _ := sess.Values[noticeKey].(string)
	if key == "" {
		return ""
	}
	delete(sess.Values, noticeKey)
	_ = sess.Save(r, w)
	return key
}
