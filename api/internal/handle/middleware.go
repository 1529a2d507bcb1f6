package handle

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

const userHeader = "X-User-ID"

type ctxKey int

const userKey ctxKey = iota

// RequireAPIToken checks "Authorization: Bearer <token>". An empty token disables the check,
// which is meant for local development only.
func RequireAPIToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("Authorization")
			if len(got) < 8 || !strings.EqualFold(got[:7], "Bearer ") ||
				subtle.ConstantTimeCompare([]byte(got[7:]), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errResp{Error: "Authentication required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser takes the owner identity from X-User-ID.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(userHeader))
		if id == "" {
			writeJSON(w, http.StatusUnauthorized, errResp{Error: "Authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, id)))
	})
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}
