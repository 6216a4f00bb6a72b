package service

import "errors"

// Auth-domain failures form a closed set of tagged variants so callers
// switch on them directly instead of matching message text. None of them
// terminate the session or the process.
var (
	ErrRecordNotFound  = errors.New("no auth record for email")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeMismatch    = errors.New("verification code mismatch")
	ErrAccountLocked   = errors.New("account temporarily locked")
	ErrAlreadyVerified = errors.New("email already verified")
)
