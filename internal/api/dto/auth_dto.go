package dto

import (
	"time"

	"github.com/northgate/helpdesk/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"password_actual" validate:"required"`
	NewPassword     string `json:"password_nuevo" validate:"required,min=8"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID     int64       `json:"id"`
	Nombre string      `json:"nombre"`
	Email  string      `json:"email"`
	Rol    domain.Role `json:"rol"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"usuario"`
}

// NewUserResponse builds the public view of u.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Nombre: u.Name, Email: u.Email, Rol: u.Role}
}
