// Package users manages game-library user accounts.
//
// User is a plain record type; persistence mapping lives in Repository
// and the wire shape is a separate Profile, so storage layout and API
// payloads can evolve independently.
package users

import "time"

// Role is a user's permission level.
type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleUser   Role = "USER"
	RoleEditor Role = "EDITOR"
	RoleAdmin  Role = "ADMIN"
)

// User is the account record as stored.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	Role         Role
	Activated    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Deleted reports whether the account has been soft-deleted.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// Profile is the wire representation of an account. It never carries
// the password hash.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile returns the wire representation of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Activated: u.Activated,
		CreatedAt: u.CreatedAt,
	}
}
