package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/careledger/auth-service/config"
	"github.com/careledger/auth-service/internal/auth/domain"
	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// OtpLifetime is how long an issued challenge stays valid.
const OtpLifetime = 15 * time.Minute

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterRe = regexp.MustCompile(`[A-Za-z]`)
	digitRe  = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

type UserService struct {
	repo       domain.UserRepository
	tokens     TokenGenerator
	mailer     domain.OtpMailer
	logger     *slog.Logger
	bcryptCost int
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, mailer domain.OtpMailer,
	logger *slog.Logger, cfg *config.Config) *UserService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &UserService{
		repo:       repo,
		tokens:     tokens,
		mailer:     mailer,
		logger:     logger,
		bcryptCost: cost,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every store access goes through the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func passwordStrong(pw string) bool {
	return len(pw) >= 8 && letterRe.MatchString(pw) && digitRe.MatchString(pw) && symbolRe.MatchString(pw)
}

// generateOtp draws a uniformly random 6-digit code from crypto/rand.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Signup creates an unverified user and dispatches a verification code.
// A mail delivery failure after the challenge is stored is logged but does
// not fail the signup; the user can still request a resend.
func (s *UserService) Signup(ctx context.Context, email, password string) error {
	normEmail := NormalizeEmail(email)
	if !emailRe.MatchString(normEmail) {
		return autherror.ErrInvalidEmail
	}
	if !passwordStrong(password) {
		return autherror.ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        normEmail,
		PasswordHash: string(hashed),
		Role:         domain.RoleUnassigned,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return err
	}

	return s.issueChallenge(ctx, user)
}

// Verify consumes the newest unexpired challenge for the given email.
// The returned bool reports whether the account was already verified, in
// which case no challenge is consumed.
func (s *UserService) Verify(ctx context.Context, email, otp string) (bool, error) {
	normEmail := NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, normEmail)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, autherror.ErrUserNotFound
	}
	if user.IsVerified {
		return true, nil
	}

	outcome, err := s.repo.ConsumeChallenge(ctx, user.ID, otp)
	if err != nil {
		return false, err
	}

	switch outcome {
	case domain.OtpSuccess:
		return false, nil
	case domain.OtpExpired:
		return false, autherror.ErrOtpExpired
	case domain.OtpIncorrect:
		return false, autherror.ErrOtpIncorrect
	case domain.OtpTooManyAttempts:
		return false, autherror.ErrTooManyAttempts
	default:
		return false, fmt.Errorf("unknown OTP outcome %d", outcome)
	}
}

// Login checks credentials and mints a session token for verified users.
// Unknown address and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	normEmail := NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, normEmail)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, autherror.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, "", time.Time{}, autherror.ErrEmailNotVerified
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", time.Time{}, autherror.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	return user, token, expiresAt, nil
}

// ResendOtp issues a fresh challenge for an unverified account. The
// returned bool reports whether the account was already verified.
func (s *UserService) ResendOtp(ctx context.Context, email string) (bool, error) {
	normEmail := NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, normEmail)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, autherror.ErrUserNotFound
	}
	if user.IsVerified {
		return true, nil
	}

	return false, s.issueChallenge(ctx, user)
}

func (s *UserService) issueChallenge(ctx context.Context, user *domain.User) error {
	code, err := generateOtp()
	if err != nil {
		return err
	}

	now := time.Now()
	ch := &domain.OtpChallenge{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(OtpLifetime),
		Attempts:  0,
		CreatedAt: now,
	}

	if err := s.repo.InsertChallenge(ctx, ch); err != nil {
		return err
	}

	// The challenge is already durable; a failed send must not undo it.
	if err := s.mailer.SendOtp(ctx, user.Email, code); err != nil {
		s.logger.Warn("failed to send OTP mail", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return nil
}
