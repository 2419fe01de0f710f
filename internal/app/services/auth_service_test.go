package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
	"github.com/thapar/projectportal/internal/pkg/auth"
)

// --- fakes ---

type storedToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

type fakeTokenRepo struct {
	tokens map[string]*storedToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*storedToken{}}
}

func (f *fakeTokenRepo) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	f.tokens[token] = &storedToken{userID: userID, expiry: expiryDate}
	return nil
}

func (f *fakeTokenRepo) GetTokenByValue(ctx context.Context, token string) (int64, time.Time, bool, error) {
	stored, ok := f.tokens[token]
	if !ok {
		return 0, time.Time{}, false, apperrors.ErrTokenNotFound
	}
	if stored.revoked {
		return 0, time.Time{}, true, apperrors.ErrTokenRevoked
	}
	if stored.expiry.Before(time.Now()) {
		return 0, time.Time{}, false, apperrors.ErrTokenExpired
	}
	return stored.userID, stored.expiry, false, nil
}

func (f *fakeTokenRepo) RevokeToken(ctx context.Context, token string) error {
	stored, ok := f.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	stored.revoked = true
	return nil
}

func (f *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	for _, stored := range f.tokens {
		if stored.userID == userID {
			stored.revoked = true
		}
	}
	return nil
}

func (f *fakeTokenRepo) CleanupExpiredTokens(ctx context.Context) (int64, error) { return 0, nil }

type storedResetToken struct {
	userID int64
	expiry time.Time
	used   bool
}

type fakeResetRepo struct {
	tokens map[string]*storedResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*storedResetToken{}}
}

func (f *fakeResetRepo) CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	f.tokens[token] = &storedResetToken{userID: userID, expiry: expiryDate}
	return nil
}

func (f *fakeResetRepo) GetTokenInfo(ctx context.Context, token string) (int64, time.Time, bool, error) {
	stored, ok := f.tokens[token]
	if !ok {
		return 0, time.Time{}, false, apperrors.ErrInvalidPasswordResetToken
	}
	return stored.userID, stored.expiry, stored.used, nil
}

func (f *fakeResetRepo) MarkTokenAsUsed(ctx context.Context, token string) error {
	stored, ok := f.tokens[token]
	if !ok {
		return apperrors.ErrInvalidPasswordResetToken
	}
	stored.used = true
	return nil
}

func (f *fakeResetRepo) DeleteTokensByUserID(ctx context.Context, userID int64) error { return nil }

func (f *fakeResetRepo) DeleteExpiredTokens(ctx context.Context) error { return nil }

type fakeOTPStore struct {
	codes map[string]string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: map[string]string{}}
}

func (f *fakeOTPStore) Generate(ctx context.Context, email string) (string, error) {
	f.codes[email] = "123456"
	return "123456", nil
}

func (f *fakeOTPStore) Verify(ctx context.Context, email, code string) error {
	stored, ok := f.codes[email]
	if !ok || stored != code {
		return apperrors.ErrOTPInvalid
	}
	delete(f.codes, email)
	return nil
}

// --- fixture ---

const testPassword = "Sup3rSecret!"

var (
	testPasswordHash     string
	testPasswordHashOnce sync.Once
)

// hashedTestPassword hashes testPassword once for the whole package; bcrypt
// is too slow to rehash per test.
func hashedTestPassword(t *testing.T) string {
	t.Helper()
	testPasswordHashOnce.Do(func() {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("HashPassword returned error: %v", err)
		}
		testPasswordHash = hash
	})
	return testPasswordHash
}

type authFixture struct {
	userRepo     *fakeUserRepo
	tokenRepo    *fakeTokenRepo
	resetRepo    *fakeResetRepo
	otpStore     *fakeOTPStore
	emailService *fakeEmailService
	service      AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		userRepo: &fakeUserRepo{
			users:    map[int64]*models.User{},
			students: map[int64]*models.Student{},
			teachers: map[int64]*models.Teacher{},
		},
		tokenRepo:    newFakeTokenRepo(),
		resetRepo:    newFakeResetRepo(),
		otpStore:     newFakeOTPStore(),
		emailService: &fakeEmailService{},
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret-key",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "projectportal-test",
	})
	f.service = NewAuthService(f.userRepo, f.tokenRepo, f.resetRepo, jwtService, f.otpStore, f.emailService)
	return f
}

func (f *authFixture) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        42,
		Email:     email,
		Password:  hashedTestPassword(t),
		FirstName: "Ravi",
		LastName:  "Kumar",
		RoleType:  models.RoleStudent,
		IsActive:  true,
	}
	f.userRepo.users[user.ID] = user
	f.userRepo.students[420] = &models.Student{ID: 420, UserID: user.ID, RollNumber: "102103001", User: user}
	return user
}

// --- tests ---

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.RegisterRequest
		wantErr error
	}{
		{
			name: "valid student",
			req: dto.RegisterRequest{
				Email: "new.student@thapar.edu", Password: testPassword,
				FirstName: "Neha", LastName: "Singh",
				RoleType: models.RoleStudent, RollNumber: "102103099", Branch: "COE", Year: 2,
			},
		},
		{
			name: "valid teacher",
			req: dto.RegisterRequest{
				Email: "new.teacher@thapar.edu", Password: testPassword,
				FirstName: "Asha", LastName: "Verma",
				RoleType: models.RoleTeacher, Department: "CSED",
			},
		},
		{
			name: "malformed email",
			req: dto.RegisterRequest{
				Email: "not-an-email", Password: testPassword,
				FirstName: "X", LastName: "Y", RoleType: models.RoleStudent, RollNumber: "102103099",
			},
			wantErr: apperrors.ErrBadRequest,
		},
		{
			name: "short password",
			req: dto.RegisterRequest{
				Email: "short.pw@thapar.edu", Password: "short",
				FirstName: "X", LastName: "Y", RoleType: models.RoleStudent, RollNumber: "102103099",
			},
			wantErr: apperrors.ErrInvalidPassword,
		},
		{
			name: "bad roll number",
			req: dto.RegisterRequest{
				Email: "bad.roll@thapar.edu", Password: testPassword,
				FirstName: "X", LastName: "Y", RoleType: models.RoleStudent, RollNumber: "12AB",
			},
			wantErr: apperrors.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)

			user, err := f.service.Register(context.Background(), &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register returned error: %v", err)
			}
			if user.ID == 0 {
				t.Errorf("user was not persisted")
			}
			if !user.IsActive {
				t.Errorf("new user should be active")
			}
			if user.Password == testPassword {
				t.Errorf("password stored in clear")
			}
			if tt.req.RoleType == models.RoleStudent {
				if f.userRepo.registeredStudent == nil || f.userRepo.registeredStudent.RollNumber != tt.req.RollNumber {
					t.Errorf("student profile not created: %+v", f.userRepo.registeredStudent)
				}
			} else if f.userRepo.registeredTeacher == nil {
				t.Errorf("teacher profile not created")
			}
		})
	}
}

func TestRegisterLowercasesEmail(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.service.Register(context.Background(), &dto.RegisterRequest{
		Email: "  Mixed.Case@Thapar.EDU ", Password: testPassword,
		FirstName: "Neha", LastName: "Singh",
		RoleType: models.RoleStudent, RollNumber: "102103099",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "mixed.case@thapar.edu" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
}

func TestLoginSendsOTP(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "lead@thapar.edu")

	if err := f.service.Login(context.Background(), "lead@thapar.edu", testPassword); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if _, ok := f.otpStore.codes["lead@thapar.edu"]; !ok {
		t.Errorf("no OTP generated for the user")
	}
	if len(f.emailService.sent) != 1 || f.emailService.sent[0] != "otp:lead@thapar.edu" {
		t.Errorf("OTP email not sent: %v", f.emailService.sent)
	}
	if len(f.tokenRepo.tokens) != 0 {
		t.Errorf("tokens issued before OTP verification")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "lead@thapar.edu")

	if err := f.service.Login(context.Background(), "lead@thapar.edu", "wrong-password"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if err := f.service.Login(context.Background(), "nobody@thapar.edu", testPassword); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}

	user.IsActive = false
	if err := f.service.Login(context.Background(), "lead@thapar.edu", testPassword); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("inactive user: err = %v, want ErrInvalidCredentials", err)
	}

	if len(f.emailService.sent) != 0 {
		t.Errorf("emails sent despite failed logins: %v", f.emailService.sent)
	}
}

func TestVerifyOTPIssuesTokens(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	if err := f.service.Login(ctx, "lead@thapar.edu", testPassword); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	user, tokens, err := f.service.VerifyOTP(ctx, "lead@thapar.edu", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP returned error: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("user ID = %d, want %d", user.ID, seeded.ID)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Errorf("token pair incomplete: %+v", tokens)
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("tokenType = %q, want Bearer", tokens.TokenType)
	}
	stored, ok := f.tokenRepo.tokens[tokens.RefreshToken]
	if !ok {
		t.Fatalf("refresh token not persisted")
	}
	if stored.userID != seeded.ID {
		t.Errorf("refresh token stored for user %d, want %d", stored.userID, seeded.ID)
	}

	// The code is consumed on success
	if _, _, err := f.service.VerifyOTP(ctx, "lead@thapar.edu", "123456"); !errors.Is(err, apperrors.ErrOTPInvalid) {
		t.Errorf("replayed code: err = %v, want ErrOTPInvalid", err)
	}
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	if err := f.service.Login(ctx, "lead@thapar.edu", testPassword); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, _, err := f.service.VerifyOTP(ctx, "lead@thapar.edu", "000000"); !errors.Is(err, apperrors.ErrOTPInvalid) {
		t.Errorf("wrong code: err = %v, want ErrOTPInvalid", err)
	}
	// Unknown email keeps the same error to avoid user enumeration
	if _, _, err := f.service.VerifyOTP(ctx, "nobody@thapar.edu", "123456"); !errors.Is(err, apperrors.ErrOTPInvalid) {
		t.Errorf("unknown email: err = %v, want ErrOTPInvalid", err)
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	f.tokenRepo.CreateToken(ctx, "old-refresh-token", seeded.ID, time.Now().Add(time.Hour))

	tokens, err := f.service.RefreshToken(ctx, "old-refresh-token")
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if tokens.RefreshToken == "old-refresh-token" {
		t.Errorf("refresh token was not rotated")
	}
	if !f.tokenRepo.tokens["old-refresh-token"].revoked {
		t.Errorf("old refresh token not revoked")
	}
	if _, ok := f.tokenRepo.tokens[tokens.RefreshToken]; !ok {
		t.Errorf("new refresh token not persisted")
	}

	// The revoked token cannot be used again
	if _, err := f.service.RefreshToken(ctx, "old-refresh-token"); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Errorf("revoked token: err = %v, want ErrTokenRevoked", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	f.tokenRepo.CreateToken(ctx, "session-token", seeded.ID, time.Now().Add(time.Hour))
	if err := f.service.Logout(ctx, "session-token"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if !f.tokenRepo.tokens["session-token"].revoked {
		t.Errorf("token not revoked on logout")
	}
}

func TestForgotPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	if err := f.service.ForgotPassword(ctx, "lead@thapar.edu"); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	if len(f.resetRepo.tokens) != 1 {
		t.Errorf("got %d reset tokens, want 1", len(f.resetRepo.tokens))
	}
	if len(f.emailService.sent) != 1 || f.emailService.sent[0] != "reset:lead@thapar.edu" {
		t.Errorf("reset email not sent: %v", f.emailService.sent)
	}

	// Unknown emails succeed silently and trigger nothing
	if err := f.service.ForgotPassword(ctx, "nobody@thapar.edu"); err != nil {
		t.Errorf("unknown email: err = %v, want nil", err)
	}
	if len(f.resetRepo.tokens) != 1 || len(f.emailService.sent) != 1 {
		t.Errorf("unknown email produced a token or an email")
	}
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	f.tokenRepo.CreateToken(ctx, "live-session", seeded.ID, time.Now().Add(time.Hour))
	f.resetRepo.CreateToken(ctx, seeded.ID, "reset-token", time.Now().Add(time.Hour))

	if err := f.service.ResetPassword(ctx, "reset-token", "NewSecret123!"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	hash, ok := f.userRepo.passwordUpdates[seeded.ID]
	if !ok {
		t.Fatalf("password was not updated")
	}
	if !auth.CheckPassword(hash, "NewSecret123!") {
		t.Errorf("stored hash does not match the new password")
	}
	if !f.resetRepo.tokens["reset-token"].used {
		t.Errorf("reset token not marked used")
	}
	if !f.tokenRepo.tokens["live-session"].revoked {
		t.Errorf("existing sessions not revoked after password reset")
	}

	// Replaying the token fails
	if err := f.service.ResetPassword(ctx, "reset-token", "AnotherSecret1!"); !errors.Is(err, apperrors.ErrPasswordResetTokenUsed) {
		t.Errorf("replayed token: err = %v, want ErrPasswordResetTokenUsed", err)
	}
}

func TestResetPasswordRejectsBadTokens(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seedUser(t, "lead@thapar.edu")
	ctx := context.Background()

	f.resetRepo.CreateToken(ctx, seeded.ID, "expired-token", time.Now().Add(-time.Minute))

	if err := f.service.ResetPassword(ctx, "expired-token", "NewSecret123!"); !errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidPasswordResetToken", err)
	}
	if err := f.service.ResetPassword(ctx, "missing-token", "NewSecret123!"); !errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
		t.Errorf("missing token: err = %v, want ErrInvalidPasswordResetToken", err)
	}
	if err := f.service.ResetPassword(ctx, "expired-token", "short"); !errors.Is(err, apperrors.ErrInvalidPassword) {
		t.Errorf("short password: err = %v, want ErrInvalidPassword", err)
	}
	if len(f.userRepo.passwordUpdates) != 0 {
		t.Errorf("password updated despite invalid token")
	}
}
