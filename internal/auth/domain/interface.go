package domain

//go:generate mockgen -destination=../../mocks/mock_repository.go -package=mocks github.com/careledger/auth-service/internal/auth/domain UserRepository,OtpMailer

import (
	"context"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	MarkVerified(ctx context.Context, userID string) error
	InsertChallenge(ctx context.Context, ch *OtpChallenge) error
	ConsumeChallenge(ctx context.Context, userID, code string) (OtpOutcome, error)
}

// OtpMailer delivers a verification code to an address. Fire-and-forget
// from the caller's perspective once accepted.
type OtpMailer interface {
	SendOtp(ctx context.Context, toEmail, code string) error
}
