package models

// RegisterRequest is the auth_register payload.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
	Role      Role   `json:"role" validate:"required,role"`
	DNI       string `json:"dni" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginRequest is the auth_login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is what both auth commands return on success. User is a
// CredentialView after registration and a UserView after login.
type AuthResponse struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}
