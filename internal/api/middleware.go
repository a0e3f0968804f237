// Package api implements the namohub REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// streamPath is the only route that also accepts the token as the
// access_token query parameter; EventSource cannot send headers.
const streamPath = "/events"

// AuthMiddleware enforces "Authorization: Bearer <token>" when enabled.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			if !tokenMatches(presentedToken(r), token) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="namohub"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedToken(r *http.Request) string {
	if auth, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return auth
	}
	if strings.HasSuffix(r.URL.Path, streamPath) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func tokenMatches(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
