package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/miketerry-org/kickstart-mvc/internal/domain"
	"github.com/miketerry-org/kickstart-mvc/internal/repository"
)

// memoryAuthRepo is an in-memory AuthRepository used across the service
// tests. Mutations hold the lock for their whole read-modify-write, which
// mirrors the single-statement atomicity of the Postgres implementation.
type memoryAuthRepo struct {
	mu      sync.Mutex
	records map[string]domain.AuthRecord
	failAll error
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{records: make(map[string]domain.AuthRecord)}
}

func (m *memoryAuthRepo) Get(_ context.Context, email string) (domain.AuthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return domain.AuthRecord{}, m.failAll
	}
	rec, ok := m.records[email]
	if !ok {
		return domain.AuthRecord{}, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memoryAuthRepo) IssueCode(_ context.Context, email string, codeHash []byte, expiresAt time.Time) (domain.AuthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return domain.AuthRecord{}, m.failAll
	}
	rec, ok := m.records[email]
	if !ok {
		rec = domain.AuthRecord{Email: email, CreatedAt: time.Now()}
	}
	rec.CodeHash = codeHash
	rec.CodeExpiresAt = expiresAt
	rec.LoginAttempts = 0
	rec.UpdatedAt = time.Now()
	m.records[email] = rec
	return rec, nil
}

func (m *memoryAuthRepo) BumpAttempts(_ context.Context, email string, now time.Time) (domain.AuthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return domain.AuthRecord{}, m.failAll
	}
	rec, ok := m.records[email]
	if !ok {
		return domain.AuthRecord{}, repository.ErrNotFound
	}
	if rec.Locked(now) {
		return rec, repository.ErrLocked
	}
	rec.LoginAttempts++
	rec.UpdatedAt = time.Now()
	m.records[email] = rec
	return rec, nil
}

func (m *memoryAuthRepo) Lock(_ context.Context, email string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[email]
	if !ok {
		return repository.ErrNotFound
	}
	rec.LockedUntil = &until
	m.records[email] = rec
	return nil
}

func (m *memoryAuthRepo) MarkVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[email]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Verified = true
	rec.LoginAttempts = 0
	rec.LockedUntil = nil
	m.records[email] = rec
	return nil
}

// record returns a copy for assertions.
func (m *memoryAuthRepo) record(email string) (domain.AuthRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[email]
	return rec, ok
}

// mutate adjusts stored state directly, e.g. to expire a code or let a lock
// elapse without waiting.
func (m *memoryAuthRepo) mutate(email string, fn func(*domain.AuthRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[email]
	fn(&rec)
	m.records[email] = rec
}
