package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie carries the viewer session token.
const AuthCookie = "authenticated"

// Token derives the cookie value issued for password.
func Token(password string) string {
	sum := sha256.Sum256([]byte("beecam:" + password))
	return hex.EncodeToString(sum[:])
}

// publicPath reports whether a path is reachable without logging in.
func publicPath(p string) bool {
	return p == "/login" ||
		p == "/api/health" ||
		strings.HasPrefix(p, "/auth/")
}

// AuthMiddleware requires the auth cookie on every non-public path. An empty
// password disables authentication.
func AuthMiddleware(password string) func(http.Handler) http.Handler {
	token := Token(password)
	return func(next http.Handler) http.Handler {
		if password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(AuthCookie)
			if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) != 1 {
				// API and file requests get a status; page loads go to the form
				if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/sd" ||
					r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
