package dto

import "github.com/thapar/projectportal/internal/app/models"

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=8"`
	FirstName string          `json:"firstName" binding:"required"`
	LastName  string          `json:"lastName" binding:"required"`
	RoleType  models.RoleType `json:"roleType" binding:"required,oneof=STUDENT TEACHER"`

	// Student-specific fields
	RollNumber string `json:"rollNumber,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Year       int    `json:"year,omitempty"`

	// Teacher-specific fields
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// LoginRequest represents the first step of login: credentials check
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse tells the client an OTP was sent
type LoginResponse struct {
	Message string `json:"message" example:"OTP sent to your email"`
	Email   string `json:"email"`
}

// VerifyOTPRequest represents the second step of login: OTP check
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
