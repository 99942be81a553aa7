package partitioner

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// WithAuth wraps next with an optional bearer-JWT check (SPEC_FULL.md
// §4.4 "ambient, not excluded by any Non-goal"): off by default, and a
// no-op pass-through when cfg.JWTEnabled is false.
func (p *Partitioner) WithAuth(next http.Handler) http.Handler {
	if !p.cfg.JWTEnabled {
		return next
	}
	secret := []byte(p.cfg.JWTSecret)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
