// Package otp stores short-lived one-time login codes in Redis.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thapar/projectportal/internal/pkg/apperrors"
)

const (
	// CodeLength is the number of digits in a generated code
	CodeLength = 6

	// DefaultTTL is how long a code stays valid
	DefaultTTL = 5 * time.Minute

	// DefaultResendCooldown is the minimum gap between two codes for the same email
	DefaultResendCooldown = 15 * time.Second
)

// Store defines the interface for OTP storage and verification
type Store interface {
	// Generate creates a new code for the email, enforcing the resend cooldown.
	Generate(ctx context.Context, email string) (string, error)
	// Verify checks the code and consumes it on success.
	Verify(ctx context.Context, email, code string) error
}

// RedisStore implements Store on top of a Redis client
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	cooldown time.Duration
}

// NewRedisStore creates a new RedisStore with the default TTL and cooldown
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		ttl:      DefaultTTL,
		cooldown: DefaultResendCooldown,
	}
}

func codeKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

func cooldownKey(email string) string {
	return fmt.Sprintf("otp_request:%s", email)
}

// Generate creates and stores a fresh code for the email.
// Returns ErrOTPCooldown if a code was requested too recently.
func (s *RedisStore) Generate(ctx context.Context, email string) (string, error) {
	// SetNX returns false when the cooldown key already exists
	ok, err := s.client.SetNX(ctx, cooldownKey(email), "1", s.cooldown).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check OTP cooldown: %w", err)
	}
	if !ok {
		return "", apperrors.ErrOTPCooldown
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, codeKey(email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	return code, nil
}

// Verify checks the submitted code against the stored one and deletes it on match.
// Returns ErrOTPInvalid when the code is wrong or has expired.
func (s *RedisStore) Verify(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, codeKey(email)).Result()
	if err == redis.Nil {
		return apperrors.ErrOTPInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to read OTP: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return apperrors.ErrOTPInvalid
	}

	// Consume the code so it cannot be replayed
	if err := s.client.Del(ctx, codeKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to consume OTP: %w", err)
	}

	return nil
}

// GenerateCode produces a random numeric code of CodeLength digits
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	return fmt.Sprintf("%0*d", CodeLength, n), nil
}
