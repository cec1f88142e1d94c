package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnauthenticated is wrapped by every error that should surface as 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session is the authenticated caller of a request. Handlers pass it to the
// service layer explicitly.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Session converts validated claims to a Session.
func (c *Claims) Session() Session {
	s := Session{UserID: c.Subject, Email: c.Email}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s.UserID != ""
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
