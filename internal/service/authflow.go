package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/mailer"
)

// Outcome classifies the result of a sign-in step for the presentation
// layer.
type Outcome int

const (
	// NeedsEmailForm re-renders the email entry form.
	NeedsEmailForm Outcome = iota
	// NeedsCodeForm renders or re-renders the code entry form.
	NeedsCodeForm
	// Locked renders the locked-account view.
	Locked
	// Verified renders the authenticated landing view.
	Verified
	// UnexpectedError renders the generic error view; the cause is logged,
	// never shown.
	UnexpectedError
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	codePattern  = regexp.MustCompile(`^[0-9]{3}-[0-9]{3}$`)
)

// User-facing messages. Record-not-found and code-mismatch are distinct but
// equally generic so the controller never reveals whether an email exists
// beyond what the state machine already implies.
const (
	msgInvalidEmail   = "Please enter a valid email address."
	msgInvalidCode    = "The code must look like 123-456."
	msgRecordNotFound = "We could not verify that code. Please re-enter your email to request a new one."
	msgCodeExpired    = "The verification code has expired. Please sign in again to request a new code."
	msgCodeMismatch   = "The verification code you entered is incorrect."
	msgAccountLocked  = "Your account is temporarily locked due to multiple failed attempts."
	msgUnexpected     = "Something went wrong. Please try again."
)

// FlowResult is what a sign-in step hands back to the handler: the outcome,
// the merged presentation data to re-display, and any user-facing messages.
type FlowResult struct {
	Outcome Outcome
	Data    map[string]any
	Errors  []string
}

// AuthFlow orchestrates the two-step email/code exchange on top of the
// verification service. Validation and auth-domain failures are resolved
// entirely here and never escalate.
type AuthFlow struct {
	codes  *VerificationCodeService
	mailer mailer.Mailer
	log    *zap.Logger
}

func NewAuthFlow(codes *VerificationCodeService, m mailer.Mailer, log *zap.Logger) *AuthFlow {
	return &AuthFlow{codes: codes, mailer: m, log: log}
}

// SubmitEmail validates the address, issues a verification code and mails
// it to the user. Invalid input short-circuits back to the email form with
// field errors before the verification service is touched.
func (f *AuthFlow) SubmitEmail(ctx context.Context, email string, locals map[string]any) FlowResult {
	email = strings.ToLower(strings.TrimSpace(email))
	data := merge(locals, map[string]any{"email": email})

	if !emailPattern.MatchString(email) {
		return FlowResult{Outcome: NeedsEmailForm, Data: data, Errors: []string{msgInvalidEmail}}
	}

	code, err := f.codes.RequestCode(ctx, email)
	if err != nil {
		f.log.Error("request code failed", zap.String("email", email), zap.Error(err))
		return FlowResult{Outcome: UnexpectedError, Data: data, Errors: []string{msgUnexpected}}
	}

	body := "Your sign-in code is " + code + ". It expires shortly."
	if err := f.mailer.Send(ctx, email, "Your sign-in code", body); err != nil {
		f.log.Error("send code failed", zap.String("email", email), zap.Error(err))
		return FlowResult{Outcome: UnexpectedError, Data: data, Errors: []string{msgUnexpected}}
	}

	return FlowResult{Outcome: NeedsCodeForm, Data: data}
}

// SubmitCode validates the code shape, submits it to the state machine and
// maps each tagged outcome to its re-entry form.
func (f *AuthFlow) SubmitCode(ctx context.Context, email, code string, locals map[string]any) FlowResult {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	data := merge(locals, map[string]any{"email": email})

	if !codePattern.MatchString(code) {
		return FlowResult{Outcome: NeedsCodeForm, Data: data, Errors: []string{msgInvalidCode}}
	}

	err := f.codes.SubmitCode(ctx, email, code)
	switch {
	case err == nil, errors.Is(err, ErrAlreadyVerified):
		return FlowResult{Outcome: Verified, Data: data}
	case errors.Is(err, ErrRecordNotFound):
		return FlowResult{Outcome: NeedsEmailForm, Data: data, Errors: []string{msgRecordNotFound}}
	case errors.Is(err, ErrCodeExpired):
		return FlowResult{Outcome: NeedsEmailForm, Data: data, Errors: []string{msgCodeExpired}}
	case errors.Is(err, ErrCodeMismatch):
		return FlowResult{Outcome: NeedsCodeForm, Data: data, Errors: []string{msgCodeMismatch}}
	case errors.Is(err, ErrAccountLocked):
		return FlowResult{Outcome: Locked, Data: data, Errors: []string{msgAccountLocked}}
	default:
		f.log.Error("submit code failed", zap.String("email", email), zap.Error(err))
		return FlowResult{Outcome: UnexpectedError, Data: data, Errors: []string{msgUnexpected}}
	}
}

func merge(locals, form map[string]any) map[string]any {
	data := make(map[string]any, len(locals)+len(form))
	for k, v := range locals {
		data[k] = v
	}
	for k, v := range form {
		data[k] = v
	}
	return data
}
