package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifies the kind of actor behind a token.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleGuide Role = "GUIDE"
)

// LoginRequest holds credentials for authenticating an actor.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterAdminRequest bootstraps an admin account.
type RegisterAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=50"`
}

// ChangePasswordRequest payload for updating a password while logged in.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ForgotPasswordRequest initiates the OTP reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the OTP reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// LoginResponse returns the issued token and actor info.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	Actor     ActorInfo `json:"actor"`
}

// ActorInfo describes the authenticated actor in responses.
type ActorInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	ActorID string `json:"actor_id"`
	Role    Role   `json:"role"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}
