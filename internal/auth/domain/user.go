package domain

import "time"

type Role string

const (
	RoleUnassigned Role = ""
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OtpChallenge is one outstanding email-verification code for a user.
// Several may exist at once (signup followed by resends); verification
// always targets the newest one that has not expired.
type OtpChallenge struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}

// OtpOutcome is the result of consuming a challenge.
type OtpOutcome int

const (
	OtpSuccess OtpOutcome = iota
	OtpExpired
	OtpIncorrect
	OtpTooManyAttempts
)
