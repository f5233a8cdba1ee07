package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"policymitr-client/internal/auth"
)

// SessionAuth turns the browser's bearer token into a request-scoped
// session. Backend calls made for the request forward the same token.
type SessionAuth struct {
	Secret []byte
	now    func() time.Time
}

func NewSessionAuth(secret string) *SessionAuth {
	return &SessionAuth{Secret: []byte(secret), now: time.Now}
}

// Middleware validates the bearer token and attaches the session to context
func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}

		// Must be Bearer format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return
		}

		session, err := auth.ParseToken(parts[1], a.Secret)
		if err == nil && session.Expired(a.now()) {
			err = auth.ErrTokenExpired
		}
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

// GetUserID returns the user id of the request's session, or "" when the
// request is unauthenticated.
func GetUserID(r *http.Request) string {
	s, ok := auth.FromContext(r.Context())
	if !ok {
		return ""
	}
	return s.UserID.String()
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}
