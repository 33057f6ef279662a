package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/careledger/auth-service/internal/auth/domain"
	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// MaxOtpAttempts is the hard cap on failed submissions per challenge.
const MaxOtpAttempts = 5

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxPool
}

func NewPostgresRepository(db PgxPool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, role, is_verified, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, email)

	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.IsVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, role, is_verified, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Email, user.PasswordHash, user.Role, user.IsVerified,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return autherror.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// MarkVerified is idempotent: verifying an already-verified user is a no-op.
func (r *PostgresRepository) MarkVerified(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	return nil
}

func (r *PostgresRepository) InsertChallenge(ctx context.Context, ch *domain.OtpChallenge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_otps (id, user_id, code, expires_at, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ch.ID, ch.UserID, ch.Code, ch.ExpiresAt, ch.Attempts, ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert OTP challenge: %w", err)
	}

	return nil
}

// ConsumeChallenge runs the verify sequence for one user inside a single
// transaction. The newest unexpired challenge row is locked with FOR UPDATE,
// so concurrent submissions for the same user serialize: exactly one correct
// submission can win, and attempt increments are never lost.
func (r *PostgresRepository) ConsumeChallenge(ctx context.Context, userID, code string) (domain.OtpOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin OTP transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT id, code, attempts
		FROM email_otps
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`, userID)

	var challengeID, stored string
	var attempts int
	if err := row.Scan(&challengeID, &stored, &attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OtpExpired, nil
		}
		return 0, fmt.Errorf("failed to load OTP challenge: %w", err)
	}

	if attempts >= MaxOtpAttempts {
		return domain.OtpTooManyAttempts, nil
	}

	if stored != code {
		if _, err := tx.Exec(ctx, `
			UPDATE email_otps SET attempts = attempts + 1 WHERE id = $1
		`, challengeID); err != nil {
			return 0, fmt.Errorf("failed to record OTP attempt: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("failed to commit OTP attempt: %w", err)
		}
		return domain.OtpIncorrect, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1
	`, userID); err != nil {
		return 0, fmt.Errorf("failed to mark user verified: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM email_otps WHERE user_id = $1
	`, userID); err != nil {
		return 0, fmt.Errorf("failed to purge OTP challenges: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit OTP verification: %w", err)
	}

	return domain.OtpSuccess, nil
}
