package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session credential. The same
// token is echoed in JSON bodies for clients preferring header-based auth.
const SessionCookieName = "token"

// SessionCookie builds the httpOnly credential cookie. Secure is only set in
// production so local front ends on plain HTTP keep working.
func SessionCookie(token string, expiresAt time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearSessionCookie expires the credential cookie immediately. Idempotent.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	}
}
