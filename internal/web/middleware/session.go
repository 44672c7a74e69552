package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for access tokens that fail verification.
var ErrInvalidSession = errors.New("invalid session")

// Session is the caller's access token as presented on the request.
// Subject is set only when the token was verified.
type Session struct {
	Token    string
	Subject  string
	Verified bool
}

type sessionKey struct{}

// ContextWithSession returns ctx carrying s.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by SessionAuth. The zero
// Session means the request was anonymous.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

// SessionAuth extracts the caller's access token from the named cookie or
// an "Authorization: Bearer" header, in that order.
//
// With an empty secret the token is forwarded unverified and the store
// decides what it may do. With a secret the token must be a valid HS256
// JWT, otherwise the request fails with 401. Requests without a token pass
// through anonymously.
func SessionAuth(cookieName, secret string) func(http.Handler) http.Handler {
	var parser *jwt.Parser
	if secret != "" {
		parser = jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			s := Session{Token: token}
			if parser != nil {
				claims := jwt.RegisteredClaims{}
				parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
					return key, nil
				})
				if err != nil || !parsed.Valid {
					writeError(w, r, http.StatusUnauthorized, ErrInvalidSession)
					return
				}
				s.Subject = claims.Subject
				s.Verified = true
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
