package model

import "time"

type Session struct {
	ID        SessionID `json:"id"`
	Token     string    `json:"-"`
	UserID    UserID    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session expired strictly before now.
func (s Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
