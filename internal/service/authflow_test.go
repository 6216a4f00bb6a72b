package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/service"
)

type capturingMailer struct {
	to      string
	subject string
	body    string
	err     error
	sent    int
}

func (m *capturingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	m.to = to
	m.subject = subject
	m.body = body
	return nil
}

func newFlow(repo *memoryAuthRepo, m *capturingMailer) *service.AuthFlow {
	codes := service.NewVerificationCodeService(repo, zap.NewNop(), testPolicy())
	return service.NewAuthFlow(codes, m, zap.NewNop())
}

func TestSubmitEmailValidationShortCircuits(t *testing.T) {
	repo := newMemoryAuthRepo()
	m := &capturingMailer{}
	flow := newFlow(repo, m)

	for _, email := range []string{"", "not-an-email", "a@b", "spaces in@x.com"} {
		result := flow.SubmitEmail(context.Background(), email, nil)
		require.Equal(t, service.NeedsEmailForm, result.Outcome, "email %q", email)
		require.NotEmpty(t, result.Errors)
	}

	require.Zero(t, m.sent, "no mail before validation passes")
	_, ok := repo.record("not-an-email")
	require.False(t, ok, "no record created for invalid input")
}

func TestSubmitEmailIssuesAndMailsCode(t *testing.T) {
	repo := newMemoryAuthRepo()
	m := &capturingMailer{}
	flow := newFlow(repo, m)

	locals := map[string]any{"title": "Alpha Site"}
	result := flow.SubmitEmail(context.Background(), " User@X.com ", locals)

	require.Equal(t, service.NeedsCodeForm, result.Outcome)
	require.Empty(t, result.Errors)
	require.Equal(t, "user@x.com", result.Data["email"], "normalized for re-display")
	require.Equal(t, "Alpha Site", result.Data["title"], "locals merged")

	require.Equal(t, 1, m.sent)
	require.Equal(t, "user@x.com", m.to)
	require.Regexp(t, codeShape, extractCode(t, m.body))

	_, ok := repo.record("user@x.com")
	require.True(t, ok)
}

func TestSubmitEmailMailerFailure(t *testing.T) {
	repo := newMemoryAuthRepo()
	m := &capturingMailer{err: errors.New("smtp down")}
	flow := newFlow(repo, m)

	result := flow.SubmitEmail(context.Background(), "user@x.com", nil)
	require.Equal(t, service.UnexpectedError, result.Outcome)
	require.NotEmpty(t, result.Errors)
	// The cause is logged, never rendered.
	require.NotContains(t, result.Errors[0], "smtp")
}

func TestSubmitCodeValidationShortCircuits(t *testing.T) {
	repo := newMemoryAuthRepo()
	flow := newFlow(repo, &capturingMailer{})

	for _, code := range []string{"", "123456", "12-3456", "abc-def", "1234-56"} {
		result := flow.SubmitCode(context.Background(), "user@x.com", code, nil)
		require.Equal(t, service.NeedsCodeForm, result.Outcome, "code %q", code)
		require.NotEmpty(t, result.Errors)
	}
}

func TestSubmitCodeOutcomeMapping(t *testing.T) {
	repo := newMemoryAuthRepo()
	m := &capturingMailer{}
	flow := newFlow(repo, m)

	// Record not found → back to the email form.
	result := flow.SubmitCode(context.Background(), "ghost@x.com", "123-456", nil)
	require.Equal(t, service.NeedsEmailForm, result.Outcome)

	// Mismatch → stay on the code form.
	flow.SubmitEmail(context.Background(), "user@x.com", nil)
	code := extractCode(t, m.body)
	result = flow.SubmitCode(context.Background(), "user@x.com", wrongCode(code), nil)
	require.Equal(t, service.NeedsCodeForm, result.Outcome)

	// Correct code → verified.
	result = flow.SubmitCode(context.Background(), "user@x.com", code, nil)
	require.Equal(t, service.Verified, result.Outcome)
	require.Empty(t, result.Errors)

	// Submitting again stays verified.
	result = flow.SubmitCode(context.Background(), "user@x.com", code, nil)
	require.Equal(t, service.Verified, result.Outcome)
}

func TestSubmitCodeLockedOutcome(t *testing.T) {
	repo := newMemoryAuthRepo()
	m := &capturingMailer{}
	flow := newFlow(repo, m)

	flow.SubmitEmail(context.Background(), "user@x.com", nil)
	for i := 0; i < 6; i++ {
		flow.SubmitCode(context.Background(), "user@x.com", "000-000", nil)
	}

	result := flow.SubmitCode(context.Background(), "user@x.com", "000-000", nil)
	require.Equal(t, service.Locked, result.Outcome)
}

func TestSubmitCodeGenericMessages(t *testing.T) {
	repo := newMemoryAuthRepo()
	m := &capturingMailer{}
	flow := newFlow(repo, m)

	notFound := flow.SubmitCode(context.Background(), "ghost@x.com", "123-456", nil)

	flow.SubmitEmail(context.Background(), "user@x.com", nil)
	mismatch := flow.SubmitCode(context.Background(), "user@x.com", "000-001", nil)

	require.NotEmpty(t, notFound.Errors)
	require.NotEmpty(t, mismatch.Errors)
	// Distinct texts, neither confirming whether the email exists.
	require.NotEqual(t, notFound.Errors[0], mismatch.Errors[0])
	require.NotContains(t, notFound.Errors[0], "exist")
	require.NotContains(t, mismatch.Errors[0], "exist")
}

func TestUnexpectedRepositoryFailure(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.failAll = errors.New("connection reset")
	flow := newFlow(repo, &capturingMailer{})

	result := flow.SubmitCode(context.Background(), "user@x.com", "123-456", nil)
	require.Equal(t, service.UnexpectedError, result.Outcome)
	require.NotContains(t, result.Errors[0], "connection reset")
}

var embeddedCode = regexp.MustCompile(`[0-9]{3}-[0-9]{3}`)

// extractCode pulls the DDD-DDD code out of a delivery body.
func extractCode(t *testing.T, body string) string {
	t.Helper()
	code := embeddedCode.FindString(body)
	require.NotEmpty(t, code, "no code found in %q", body)
	return code
}

func wrongCode(code string) string {
	if code == "000-000" {
		return "111-111"
	}
	return "000-000"
}
