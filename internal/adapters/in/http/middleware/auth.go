// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient is an alias so DI wiring can pass
// *middleware.FirebaseAuthClient without importing fbauth directly.
type FirebaseAuthClient = fbauth.Client

// context keys use a private struct type to avoid collisions (SA1029)
type ctxKey struct{ name string }

var (
	ctxKeyUID      = ctxKey{name: "uid"}
	ctxKeyEmail    = ctxKey{name: "email"}
	ctxKeyFullName = ctxKey{name: "fullName"}
)

// CurrentUID returns the authenticated account id.
func CurrentUID(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxKeyUID)
	u, ok := v.(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}

// CurrentUIDAndEmail returns uid/email (email can be empty).
func CurrentUIDAndEmail(r *http.Request) (uid string, email string, ok bool) {
	uid, ok = CurrentUID(r)
	if !ok {
		return "", "", false
	}
	if v := r.Context().Value(ctxKeyEmail); v != nil {
		if e, okEmail := v.(string); okEmail {
			email = strings.TrimSpace(e)
		}
	}
	return uid, email, true
}

// CurrentFullName returns the display name if the token carried one.
func CurrentFullName(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxKeyFullName)
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// WithTestIdentity injects uid/email into the request context without
// token verification. Handler tests only.
func WithTestIdentity(r *http.Request, uid, email string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
	if email != "" {
		ctx = context.WithValue(ctx, ctxKeyEmail, email)
	}
	return r.WithContext(ctx)
}
