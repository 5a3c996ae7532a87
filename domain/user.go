package domain

import "time"

// User represents a registered account. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public returns a copy of the user with the password hash stripped.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	return &out
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// PrincipalOf derives the request principal from a resolved user.
func PrincipalOf(u *User) Principal {
	if u == nil {
		return Principal{}
	}
	return Principal{UserID: u.ID, Email: u.Email}
}
