// Package repository persists AuthRecord documents in a tenant's data
// store. Every mutation is a single conditional statement so concurrent
// submissions against one record cannot interleave partial updates.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miketerry-org/kickstart-mvc/internal/domain"
)

var (
	// ErrNotFound reports that no record exists for the email.
	ErrNotFound = errors.New("auth record not found")
	// ErrLocked reports that the record carries an active lock and was left
	// unchanged.
	ErrLocked = errors.New("auth record locked")
)

// AuthRepository is the persistence contract the verification service works
// against.
type AuthRepository interface {
	// Get returns the record for email or ErrNotFound.
	Get(ctx context.Context, email string) (domain.AuthRecord, error)

	// IssueCode upserts the record with a fresh code hash and expiry and
	// resets login attempts to zero. An existing lock or verified flag is
	// left untouched.
	IssueCode(ctx context.Context, email string, codeHash []byte, expiresAt time.Time) (domain.AuthRecord, error)

	// BumpAttempts atomically increments login attempts and returns the
	// updated record. Returns ErrNotFound when no record exists and
	// ErrLocked, without mutating anything, when the lock is still active
	// at now.
	BumpAttempts(ctx context.Context, email string, now time.Time) (domain.AuthRecord, error)

	// Lock engages the lockout until the given time.
	Lock(ctx context.Context, email string, until time.Time) error

	// MarkVerified sets the verified flag and clears attempts and lock.
	MarkVerified(ctx context.Context, email string) error
}

// PostgresAuthRepo implements AuthRepository over a tenant's pgx pool.
type PostgresAuthRepo struct {
	db *pgxpool.Pool
}

var _ AuthRepository = (*PostgresAuthRepo)(nil)

func NewPostgresAuthRepo(db *pgxpool.Pool) *PostgresAuthRepo {
	return &PostgresAuthRepo{db: db}
}

const authRecordColumns = `email, code_hash, code_expires_at, verified, login_attempts, locked_until, created_at, updated_at`

func (r *PostgresAuthRepo) Get(ctx context.Context, email string) (domain.AuthRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+authRecordColumns+` FROM auth_records WHERE email = $1`, email)
	return scanRecord(row)
}

func (r *PostgresAuthRepo) IssueCode(ctx context.Context, email string, codeHash []byte, expiresAt time.Time) (domain.AuthRecord, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO auth_records (email, code_hash, code_expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			code_expires_at = EXCLUDED.code_expires_at,
			login_attempts = 0,
			updated_at = now()
		RETURNING `+authRecordColumns,
		email, codeHash, expiresAt)
	rec, err := scanRecord(row)
	if err != nil {
		return domain.AuthRecord{}, fmt.Errorf("issue code: %w", err)
	}
	return rec, nil
}

func (r *PostgresAuthRepo) BumpAttempts(ctx context.Context, email string, now time.Time) (domain.AuthRecord, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE auth_records
		SET login_attempts = login_attempts + 1, updated_at = now()
		WHERE email = $1 AND (locked_until IS NULL OR locked_until <= $2)
		RETURNING `+authRecordColumns,
		email, now)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.AuthRecord{}, fmt.Errorf("bump attempts: %w", err)
	}

	// The conditional update matched nothing: either the record is missing
	// or the lock is still engaged.
	existing, getErr := r.Get(ctx, email)
	if getErr != nil {
		return domain.AuthRecord{}, getErr
	}
	if existing.Locked(now) {
		return existing, ErrLocked
	}
	return domain.AuthRecord{}, ErrNotFound
}

func (r *PostgresAuthRepo) Lock(ctx context.Context, email string, until time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_records SET locked_until = $2, updated_at = now() WHERE email = $1`,
		email, until)
	if err != nil {
		return fmt.Errorf("lock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAuthRepo) MarkVerified(ctx context.Context, email string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE auth_records
		SET verified = TRUE, login_attempts = 0, locked_until = NULL, updated_at = now()
		WHERE email = $1`,
		email)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (domain.AuthRecord, error) {
	var rec domain.AuthRecord
	err := row.Scan(
		&rec.Email,
		&rec.CodeHash,
		&rec.CodeExpiresAt,
		&rec.Verified,
		&rec.LoginAttempts,
		&rec.LockedUntil,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AuthRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.AuthRecord{}, fmt.Errorf("scan auth record: %w", err)
	}
	return rec, nil
}
