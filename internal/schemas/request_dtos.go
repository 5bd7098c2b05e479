// Package schemas defines the request structures for various operations in the application.
package schemas

// RegistrationRequest is a struct that represents a registration request
// Username is required and must be less than 20 characters
// Email is required and must be a valid email
// Password is required
// The profile fields mirror what the mobile client collects and are stored as text
type RegistrationRequest struct {
	Username string `json:"username" validate:"required,max=20,username_validation"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=50"`
	Age      string `json:"age" validate:"required,max=3"`
	Gender   string `json:"gender" validate:"required,max=20"`
	Weight   string `json:"weight" validate:"required,max=10"`
	Height   string `json:"height" validate:"required,max=10"`
}

// LoginRequest is a struct that represents a login request
// Identifier is required and accepts either a username or an email address
// Password is required
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=320"`
	Password   string `json:"password" validate:"required"`
}

// RecoverUsernameRequest is a struct that represents a username recovery request
// Email is required and must be a valid email
type RecoverUsernameRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest is a struct that represents a password reset request
// Email is required and must be a valid email
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is a struct that represents a password reset completion request
// Token is required and is treated as an opaque value
// NewPassword is required
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}
