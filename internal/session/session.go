package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no session exists for a token.
var ErrNotFound = errors.New("session not found")

// Session is the payer's authenticated portal state. It lives in the
// key-value store under its token and never touches the relational
// database.
type Session struct {
	Token          string    `json:"-"`
	StudentID      int64     `json:"student_id"`
	SchoolID       string    `json:"school_id"`
	AcademicYearID string    `json:"academic_year_id"`
	StudentName    string    `json:"student_name"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the session's deadline has passed. The store
// TTL usually reaps sessions first; this guards against clock drift and
// stores without expiry support.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store is the session persistence contract.
type Store interface {
	Put(ctx context.Context, sess *Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

type contextKey struct{}

var sessionContextKey = contextKey{}

// NewContext returns a context carrying the validated session.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// FromContext extracts the session placed by the portal auth middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	return sess, ok
}
