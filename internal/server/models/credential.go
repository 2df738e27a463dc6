// Package models defines the server-side data models of the auth service.
package models

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleUser}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// Credential is the local auth record. PasswordHash never leaves the
// service; hand out View() instead.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialView is a Credential without its password hash.
type CredentialView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Credential) View() CredentialView {
	return CredentialView{
		ID:        c.ID,
		Email:     c.Email,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Identity is the minimal identity asserted by an issued token.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

func (c *Credential) Identity() Identity {
	return Identity{ID: c.ID, Email: c.Email, Role: c.Role}
}
