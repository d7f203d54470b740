package models

import (
	"time"

	"taskhub/internal/authz"
)

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never serialized
	Role         authz.Role `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserPage is the list-response envelope for users, the same shape the task
// listing uses.
type UserPage struct {
	Results      []*User `json:"results"`
	Page         int     `json:"page"`
	Limit        int     `json:"limit"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name     *string     `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string     `json:"email" validate:"omitempty,email"`
	Password *string     `json:"password" validate:"omitempty,min=8,max=100"`
	Role     *authz.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

func (r *UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil && r.Role == nil
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmPasswordResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}
