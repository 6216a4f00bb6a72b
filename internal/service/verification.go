// Package service owns the authentication record lifecycle: one-time code
// issuance and verification, attempt counting, lockout and expiry, plus the
// flow controller that translates outcomes for the presentation layer.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/miketerry-org/kickstart-mvc/internal/repository"
)

// VerificationPolicy bounds the code lifecycle per tenant store.
type VerificationPolicy struct {
	MaxAttempts  int
	CodeTTL      time.Duration
	LockDuration time.Duration
}

// VerificationCodeService drives the per-email authentication state
// machine against one tenant's auth repository.
type VerificationCodeService struct {
	repo   repository.AuthRepository
	log    *zap.Logger
	policy VerificationPolicy
	now    func() time.Time
}

func NewVerificationCodeService(repo repository.AuthRepository, log *zap.Logger, policy VerificationPolicy) *VerificationCodeService {
	return &VerificationCodeService{
		repo:   repo,
		log:    log,
		policy: policy,
		now:    time.Now,
	}
}

// RequestCode creates or refreshes the auth record for email: a new code,
// a new expiry, attempts reset to zero. An active lock is left in place and
// keeps rejecting submissions until it elapses. The plaintext code is
// returned once for delivery and only its hash is stored.
func (s *VerificationCodeService) RequestCode(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	expiresAt := s.now().Add(s.policy.CodeTTL)
	if _, err := s.repo.IssueCode(ctx, email, hash, expiresAt); err != nil {
		return "", err
	}

	s.log.Info("verification code issued", zap.String("email", email))
	return code, nil
}

// SubmitCode verifies a submitted code. The lock check runs first and
// leaves an already-locked record unchanged; otherwise the attempt counter
// is incremented atomically before anything else is examined, so brute-force
// lockout cannot be bypassed by concurrent submissions. Expiry is checked
// before the hash comparison.
func (s *VerificationCodeService) SubmitCode(ctx context.Context, email, code string) error {
	now := s.now()

	rec, err := s.repo.BumpAttempts(ctx, email, now)
	switch {
	case errors.Is(err, repository.ErrLocked):
		return ErrAccountLocked
	case errors.Is(err, repository.ErrNotFound):
		return ErrRecordNotFound
	case err != nil:
		return err
	}

	if rec.LoginAttempts > s.policy.MaxAttempts {
		if err := s.repo.Lock(ctx, email, now.Add(s.policy.LockDuration)); err != nil {
			return err
		}
		s.log.Warn("account locked",
			zap.String("email", email),
			zap.Int("attempts", rec.LoginAttempts),
		)
		return ErrAccountLocked
	}

	if rec.Verified {
		return ErrAlreadyVerified
	}
	if now.After(rec.CodeExpiresAt) {
		return ErrCodeExpired
	}
	// bcrypt's comparison is constant-time; a plain byte compare here would
	// leak match position through timing.
	if bcrypt.CompareHashAndPassword(rec.CodeHash, []byte(code)) != nil {
		return ErrCodeMismatch
	}

	if err := s.repo.MarkVerified(ctx, email); err != nil {
		return err
	}
	s.log.Info("email verified", zap.String("email", email))
	return nil
}

// generateCode produces a code matching DDD-DDD from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	v := n.Int64()
	return fmt.Sprintf("%03d-%03d", v/1000, v%1000), nil
}
