// Package identity resolves the authenticated caller and their linked partner.
package identity

import (
	"context"
	"time"
)

// Session is the authenticated principal of one request or connection.
// It is created by the auth layer and torn down by sign-out.
type Session struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// Valid reports whether the session names a subject and has not expired
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Subject == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

type sessionKey struct{}

// WithSession returns a context carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session from ctx, or nil
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
