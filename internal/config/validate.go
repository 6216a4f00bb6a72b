package config

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// checker validates typed, range-bounded fields out of a decoded JSON
// document. Checks never short-circuit: every field is examined and all
// violations are collected so they can be reported together.
type checker struct {
	values map[string]any
	errs   []error
}

func newChecker(values map[string]any) *checker {
	return &checker{values: values}
}

func (c *checker) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

// Err combines all collected violations, or returns nil when every field
// passed.
func (c *checker) Err() error {
	return multierr.Combine(c.errs...)
}

// Int returns the named integer field. A nil def marks the field required.
// JSON numbers arrive as float64; non-integral values are a type violation.
func (c *checker) Int(name string, def *int, min, max int) int {
	raw, ok := c.values[name]
	if !ok {
		if def == nil {
			c.fail("%q is required", name)
			return 0
		}
		return *def
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		c.fail("%q must be an integer", name)
		return 0
	}
	n := int(f)
	if n < min || n > max {
		c.fail("%q must be between %d and %d, got %d", name, min, max, n)
		return 0
	}
	return n
}

// String returns the named string field, bounded by length. A nil def marks
// the field required.
func (c *checker) String(name string, def *string, minLen, maxLen int) string {
	raw, ok := c.values[name]
	if !ok {
		if def == nil {
			c.fail("%q is required", name)
			return ""
		}
		return *def
	}
	s, ok := raw.(string)
	if !ok {
		c.fail("%q must be a string", name)
		return ""
	}
	if len(s) < minLen || len(s) > maxLen {
		c.fail("%q must be between %d and %d characters, got %d", name, minLen, maxLen, len(s))
		return ""
	}
	return s
}

// StringList returns the named optional list of strings.
func (c *checker) StringList(name string, def []string) []string {
	raw, ok := c.values[name]
	if !ok {
		return def
	}
	items, ok := raw.([]any)
	if !ok {
		c.fail("%q must be a list of strings", name)
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			c.fail("%q[%d] must be a string", name, i)
			continue
		}
		out = append(out, s)
	}
	return out
}

func intDefault(n int) *int       { return &n }
func strDefault(s string) *string { return &s }
