package dto

import (
	"anoa.com/taskmanager/internal/entity"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterInput never carries a role: self-registered accounts are always developers.
type RegisterInput struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,max=255,strongpassword"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

type AuthResponse struct {
	Message     string       `json:"message"`
	User        *entity.User `json:"user"`
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty"`
	ExpiresIn   int64        `json:"expires_in,omitempty"`
}

type CreateUserRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,max=255,strongpassword"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Role                 string `json:"role" binding:"required,oneof=admin developer"`
}

// UpdateUserRequest replaces name, email and role. The password only changes when present.
type UpdateUserRequest struct {
	Name                 string  `json:"name" binding:"required,max=255"`
	Email                string  `json:"email" binding:"required,email,max=255"`
	Password             *string `json:"password" binding:"omitempty,max=255,strongpassword"`
	PasswordConfirmation *string `json:"password_confirmation"`
	Role                 string  `json:"role" binding:"required,oneof=admin developer"`
}

type UserFilter struct {
	Role *entity.Role
}
