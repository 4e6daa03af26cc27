package domain

import "time"

// Session is the record persisted after a successful login
type Session struct {
	Email         string    `json:"email"`
	Authenticated bool      `json:"authenticated"`
	LoginTime     time.Time `json:"loginTime"`
}

// Valid returns true if the record describes an authenticated user
func (s *Session) Valid() bool {
	return s != nil && s.Authenticated && s.Email != ""
}

// Age returns how long ago the session was created
func (s *Session) Age(now time.Time) time.Duration {
	if s == nil || s.LoginTime.IsZero() {
		return 0
	}
	return now.Sub(s.LoginTime)
}

// Screen is the top-level view shown to the operator
type Screen string

const (
	ScreenLogin Screen = "login"
	ScreenMain  Screen = "main"
)
