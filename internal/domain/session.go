package domain

import "time"

// Session is the server-held state of a browser client.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	Role         Role      `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// IdleExpired reports whether the session saw no activity for longer than idle.
func (s *Session) IdleExpired(now time.Time, idle time.Duration) bool {
	return now.Sub(s.LastActivity) > idle
}
