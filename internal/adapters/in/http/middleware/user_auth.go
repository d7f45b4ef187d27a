// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
)

// UserAuthMiddleware verifies the Firebase ID token of a buyer and
// stores uid/email/fullName in the request context. Buyer endpoints
// (/store/me/...) never trust an account id from the request body.
type UserAuthMiddleware struct {
	FirebaseAuth *FirebaseAuthClient
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.FirebaseAuth == nil {
			http.Error(w, "user auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		email := ""
		if v, ok := token.Claims["email"]; ok {
			if e, ok2 := v.(string); ok2 {
				email = strings.TrimSpace(e)
			}
		}

		fullName := ""
		if v, ok := token.Claims["name"]; ok {
			if s, ok2 := v.(string); ok2 {
				fullName = strings.TrimSpace(s)
			}
		}

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		if email != "" {
			ctx = context.WithValue(ctx, ctxKeyEmail, email)
		}
		if fullName != "" {
			ctx = context.WithValue(ctx, ctxKeyFullName, fullName)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
