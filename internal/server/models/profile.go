package models

import "time"

// ProfileCreate is the user_create payload sent to the users service.
type ProfileCreate struct {
	ID        string `json:"id"`
	DNI       string `json:"dni"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile is the subset of a users-service record the auth service knows
// about. Unknown keys in the remote payload are dropped.
type Profile struct {
	ID        string     `json:"id,omitempty"`
	DNI       string     `json:"dni,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      Role       `json:"role,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// UserView is what login returns: the credential view enriched with
// profile data.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	DNI       string    `json:"dni,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

// MergeUserView lays p over v. A profile field wins whenever it is set;
// unset profile fields leave the credential value alone. A nil profile
// yields the credential data only.
func MergeUserView(v CredentialView, p *Profile) UserView {
	out := UserView{
		ID:        v.ID,
		Email:     v.Email,
		Role:      v.Role,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if p == nil {
		return out
	}

	if p.ID != "" {
		out.ID = p.ID
	}
	if p.Email != "" {
		out.Email = p.Email
	}
	if p.Role != "" {
		out.Role = p.Role
	}
	if p.CreatedAt != nil {
		out.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = *p.UpdatedAt
	}
	out.DNI = p.DNI
	out.FirstName = p.FirstName
	out.LastName = p.LastName

	return out
}
