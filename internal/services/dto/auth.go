package dto

import (
	"time"

	"talentvault_backend/internal/models"
)

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the access token and a user summary.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        models.UserRole `json:"role"`
	CreatedAt   time.Time       `json:"created_at"`
}
