package dto

import (
	"time"

	"github.com/spec-kit/roadguard/internal/domain"
)

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Name         string  `json:"name" validate:"required,max=200"`
	Password     string  `json:"password" validate:"required"`
	Role         string  `json:"role"`
	Organization *string `json:"organization" validate:"omitempty,max=200"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateRoleRequest payload for role changes.
type UpdateRoleRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	NewRole string `json:"new_role" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LogoutResponse reports the logout outcome.
type LogoutResponse struct {
	Revoked bool   `json:"revoked"`
	Message string `json:"message"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role"`
	IsActive     bool        `json:"is_active"`
	Organization *string     `json:"organization"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUserResponse maps a user without its credential.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		IsActive:     user.IsActive,
		Organization: user.Organization,
		CreatedAt:    user.CreatedAt,
	}
}

// NewTokenResponse maps a token pair.
func NewTokenResponse(pair *domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
}
