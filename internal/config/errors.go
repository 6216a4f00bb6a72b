package config

import "fmt"

// DecryptionError reports a key or decryption failure while opening the
// server configuration bundle. The process must not start when it occurs.
type DecryptionError struct {
	Path string
	Err  error
}

func (e *DecryptionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config decryption failed: %v", e.Err)
	}
	return fmt.Sprintf("config decryption failed for %s: %v", e.Path, e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// ValidationError aggregates every field violation found in a decrypted
// configuration document so an operator can fix the bundle in one pass.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
