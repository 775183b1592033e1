package mapper

import (
	"errors"
	"fmt"
)

// ErrInvalidRule matches every *InvalidRuleError through errors.Is.
var ErrInvalidRule = errors.New("invalid rule")

// InvalidRuleError reports a malformed rule: a bad source shape, a
// non-callable transform, an arity mismatch or an unparsable path.
type InvalidRuleError struct {
	Target string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: %s", e.Target, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error { return ErrInvalidRule }

func invalid(target, format string, args ...any) error {
	return &InvalidRuleError{Target: target, Reason: fmt.Sprintf(format, args...)}
}
