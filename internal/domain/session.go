package domain

import "context"

// Session is the authenticated identity of the local user. The zero value is
// the logged-out state.
type Session struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Normalize enforces token absent ⇔ email/name absent. A token without an
// email cannot be attributed to a user and is dropped too.
func (s Session) Normalize() Session {
	if s.Token == "" || s.Email == "" {
		return Session{}
	}
	return s
}

// StateStore is durable client storage: a flat key/value space with
// unconditional overwrites. Get returns ErrNotFound for missing keys.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
