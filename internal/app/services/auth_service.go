package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
	"github.com/thapar/projectportal/internal/pkg/auth"
	"github.com/thapar/projectportal/internal/pkg/email"
	"github.com/thapar/projectportal/internal/pkg/logger"
	"github.com/thapar/projectportal/internal/pkg/otp"
	"github.com/thapar/projectportal/internal/pkg/validation"
)

// passwordResetTokenTTL is how long a reset link stays valid
const passwordResetTokenTTL = time.Hour

// AuthService handles registration and the two-step OTP login
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error)

	// Login checks credentials and sends an OTP to the user's email.
	// Tokens are only issued after VerifyOTP.
	Login(ctx context.Context, email, password string) error
	VerifyOTP(ctx context.Context, email, code string) (*models.User, *dto.TokenResponse, error)

	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthServiceImpl implements AuthService
type AuthServiceImpl struct {
	userRepo     repositories.IUserRepository
	tokenRepo    repositories.ITokenRepository
	resetRepo    repositories.IPasswordResetTokenRepository
	jwtService   *auth.JWTService
	otpStore     otp.Store
	emailService email.EmailService
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	resetRepo repositories.IPasswordResetTokenRepository,
	jwtService *auth.JWTService,
	otpStore otp.Store,
	emailService email.EmailService,
) AuthService {
	return &AuthServiceImpl{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		resetRepo:    resetRepo,
		jwtService:   jwtService,
		otpStore:     otpStore,
		emailService: emailService,
	}
}

// Register creates a user together with its student or teacher profile
func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if !validation.CompiledPatterns.Email.MatchString(emailAddr) {
		return nil, apperrors.NewBadRequestError("invalid email address")
	}
	if len(req.Password) < validation.PasswordMinLength {
		return nil, apperrors.ErrInvalidPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     emailAddr,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleType:  req.RoleType,
		IsActive:  true,
	}

	var student *models.Student
	var teacher *models.Teacher
	switch req.RoleType {
	case models.RoleStudent:
		if !validation.CompiledPatterns.RollNumber.MatchString(req.RollNumber) {
			return nil, apperrors.NewBadRequestError("roll number must be 9 digits")
		}
		student = &models.Student{RollNumber: req.RollNumber}
		if req.Branch != "" {
			student.Branch = &req.Branch
		}
		if req.Year > 0 {
			student.Year = &req.Year
		}
	case models.RoleTeacher:
		teacher = &models.Teacher{}
		if req.Department != "" {
			teacher.Department = &req.Department
		}
		if req.Designation != "" {
			teacher.Designation = &req.Designation
		}
	default:
		return nil, apperrors.NewBadRequestError("unknown role type")
	}

	if err := s.userRepo.Register(ctx, user, student, teacher); err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", user.ID).Str("role", string(user.RoleType)).Msg("User registered")
	return user, nil
}

// Login checks credentials and sends a one-time code to the user's email
func (s *AuthServiceImpl) Login(ctx context.Context, emailAddr, password string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	user, err := s.userRepo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrInvalidCredentials
		}
		return err
	}

	if !user.IsActive || !auth.CheckPassword(user.Password, password) {
		return apperrors.ErrInvalidCredentials
	}

	code, err := s.otpStore.Generate(ctx, emailAddr)
	if err != nil {
		return err
	}

	if err := s.emailService.SendOTPEmail(user.Email, user.FullName(), code); err != nil {
		return err
	}

	return nil
}

// VerifyOTP completes login: consumes the code and issues a token pair
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, emailAddr, code string) (*models.User, *dto.TokenResponse, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	user, err := s.userRepo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, nil, apperrors.ErrOTPInvalid
		}
		return nil, nil, err
	}

	if err := s.otpStore.Verify(ctx, emailAddr, code); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login time")
	}

	return user, tokens, nil
}

// issueTokens generates a JWT pair and persists the refresh token. The
// student or teacher sub-profile id rides along in the access token claims.
func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	var profileID int64
	if user.RoleType == models.RoleTeacher {
		if teacher, err := s.userRepo.GetTeacherByUserID(ctx, user.ID); err == nil {
			profileID = teacher.ID
		}
	} else {
		if student, err := s.userRepo.GetStudentByUserID(ctx, user.ID); err == nil {
			profileID = student.ID
		}
	}

	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user, profileID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.CreateToken(ctx, refreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:           accessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(expiresIn),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresIn: int64(refreshExpiresIn),
	}, nil
}

// RefreshToken rotates the refresh token and issues a fresh pair
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, _, _, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the given refresh token
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.RevokeToken(ctx, refreshToken)
}

// ForgotPassword starts the reset flow. Unknown emails are not reported back
// to the caller.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	user, err := s.userRepo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			logger.Info().Str("email", emailAddr).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := email.GeneratePasswordResetToken()
	if err != nil {
		return err
	}

	if err := s.resetRepo.CreateToken(ctx, user.ID, token, time.Now().Add(passwordResetTokenTTL)); err != nil {
		return err
	}

	if err := s.emailService.SendPasswordResetEmail(user.Email, user.FullName(), token); err != nil {
		return err
	}

	return nil
}

// ResetPassword completes the reset flow and revokes all active sessions
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < validation.PasswordMinLength {
		return apperrors.ErrInvalidPassword
	}

	userID, expiryDate, used, err := s.resetRepo.GetTokenInfo(ctx, token)
	if err != nil {
		return err
	}
	if used {
		return apperrors.ErrPasswordResetTokenUsed
	}
	if expiryDate.Before(time.Now()) {
		return apperrors.ErrInvalidPasswordResetToken
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.resetRepo.MarkTokenAsUsed(ctx, token); err != nil {
		return err
	}

	// Force re-login everywhere after a password change
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke user tokens after password reset")
	}

	return nil
}
