package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AccessTokenCookie is the browser fallback for the bearer credential.
const AccessTokenCookie = "access_token"

// SessionCookie writes the HttpOnly access-token cookie for browser clients.
type SessionCookie struct {
	Domain string
	Secure bool
}

func NewSessionCookie(domain string, secure bool) *SessionCookie {
	return &SessionCookie{Domain: domain, Secure: secure}
}

// Set stores token until exp. An already expired exp clears the cookie.
func (s *SessionCookie) Set(c *gin.Context, token string, exp time.Time) {
	maxAge := int(time.Until(exp).Seconds())
	if maxAge <= 0 {
		s.Clear(c)
		return
	}
	http.SetCookie(c.Writer, s.cookie(token, maxAge, exp))
}

func (s *SessionCookie) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, s.cookie("", -1, time.Unix(0, 0)))
}

func (s *SessionCookie) cookie(value string, maxAge int, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   s.Domain,
		Expires:  exp.UTC(),
		MaxAge:   maxAge,
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
