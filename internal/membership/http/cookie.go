package http

import (
	"net/http"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
)

// CookieConfig controls the session cookie. Secure is off only in dev, where
// the service runs over plain HTTP.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return membersdk.SessionCookieName
	}
	return c.Name
}

func (c CookieConfig) set(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) read(r *http.Request) string {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}
