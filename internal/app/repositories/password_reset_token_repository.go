package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thapar/projectportal/internal/db"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
)

// IPasswordResetTokenRepository defines the interface for password reset token operations
type IPasswordResetTokenRepository interface {
	CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error
	GetTokenInfo(ctx context.Context, token string) (int64, time.Time, bool, error)
	MarkTokenAsUsed(ctx context.Context, token string) error
	DeleteTokensByUserID(ctx context.Context, userID int64) error
	DeleteExpiredTokens(ctx context.Context) error
}

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	db *db.PostgresDB
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(database *db.PostgresDB) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: database}
}

// CreateToken stores a new password reset token
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expiry_date)
		VALUES ($1, $2, $3)`,
		userID, token, expiryDate)
	if err != nil {
		return fmt.Errorf("error creating password reset token: %w", err)
	}
	return nil
}

// GetTokenInfo retrieves user ID, expiry date and used flag for a given token
func (r *PasswordResetTokenRepository) GetTokenInfo(ctx context.Context, token string) (int64, time.Time, bool, error) {
	var userID int64
	var expiryDate time.Time
	var used bool

	err := r.db.Pool.QueryRow(ctx, `
		SELECT user_id, expiry_date, used
		FROM password_reset_tokens
		WHERE token = $1`, token).Scan(&userID, &expiryDate, &used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, false, apperrors.ErrInvalidPasswordResetToken
		}
		return 0, time.Time{}, false, fmt.Errorf("error retrieving password reset token: %w", err)
	}

	return userID, expiryDate, used, nil
}

// MarkTokenAsUsed marks a token as used to prevent reuse
func (r *PasswordResetTokenRepository) MarkTokenAsUsed(ctx context.Context, token string) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE password_reset_tokens SET used = true WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("error marking token as used: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInvalidPasswordResetToken
	}
	return nil
}

// DeleteTokensByUserID removes all tokens for a specific user
func (r *PasswordResetTokenRepository) DeleteTokensByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting password reset tokens for user: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes all expired tokens
func (r *PasswordResetTokenRepository) DeleteExpiredTokens(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE expiry_date < $1`, time.Now())
	if err != nil {
		return fmt.Errorf("error deleting expired password reset tokens: %w", err)
	}
	return nil
}
