package domain

import "time"

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session identifies the authenticated caller of a request. It is issued at
// login or signup and stops being valid at logout or expiry.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session carries an identity and has not expired.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID != "" && now.Before(s.ExpiresAt)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
