// Package models defines the server-side data models.
package models

import "time"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an identity. UserName never changes after creation; PasswordHash
// is opaque verifier material and is never serialized.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Authorities returns the granted authorities for the user's role.
func (u *User) Authorities() []string {
	return []string{"ROLE_" + string(u.Role)}
}
