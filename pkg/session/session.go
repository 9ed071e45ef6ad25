package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const valueKey = "value"

// Jar gives request handlers access to the signed cookies of one request.
type Jar interface {
	Get(name string) (string, bool)
	Set(name, value string, maxAge time.Duration) error
	Delete(name string) error
}

type Store struct {
	store  *sessions.CookieStore
	path   string
	secure bool
}

// NewCookieStore creates a store whose cookies are signed with secret and scoped
// to path.
func NewCookieStore(secret []byte, path string, secure bool) *Store {
	return &Store{
		store:  sessions.NewCookieStore(secret),
		path:   path,
		secure: secure,
	}
}

func (s *Store) Jar(r *http.Request, w http.ResponseWriter) Jar {
	return &cookieJar{store: s, r: r, w: w}
}

func (s *Store) options(maxAge time.Duration) *sessions.Options {
	return &sessions.Options{
		Path:     s.path,
		MaxAge:   int(maxAge / time.Second),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

type cookieJar struct {
	store *Store
	r     *http.Request
	w     http.ResponseWriter
}

func (j *cookieJar) Get(name string) (string, bool) {
	sess, err := j.store.store.Get(j.r, name)
	if err != nil || sess.IsNew {
		return "", false
	}

	value, ok := sess.Values[valueKey].(string)
	if !ok || value == "" {
		return "", false
	}

	return value, true
}

// Set writes the cookie. A zero maxAge makes it a browser-session cookie.
func (j *cookieJar) Set(name, value string, maxAge time.Duration) error {
	sess, err := j.store.store.New(j.r, name)
	if err != nil && sess == nil {
		return err
	}

	sess.Options = j.store.options(maxAge)
	sess.Values[valueKey] = value
	return sess.Save(j.r, j.w)
}

func (j *cookieJar) Delete(name string) error {
	sess, err := j.store.store.New(j.r, name)
	if err != nil && sess == nil {
		return err
	}

	sess.Options = j.store.options(0)
	sess.Options.MaxAge = -1
	return sess.Save(j.r, j.w)
}
