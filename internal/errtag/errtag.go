// Package errtag implements the error taxonomy shared across the
// module: InvalidArgument, NotFound, InvariantViolation, Undefined and
// CancelledOrTimedOut are kinds, not distinct Go types, so that callers
// can use errors.As against a single Tagged type and switch on Kind.
// Built over github.com/pkg/errors so causes chain through
// errors.Is/As and InvariantViolation (the one kind the pipeline logs
// rather than simply propagates) carries a stack trace.
package errtag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed error taxonomy.
type Kind int

const (
	InvalidArgument Kind = iota
	NotFound
	InvariantViolation
	Undefined
	CancelledOrTimedOut
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case InvariantViolation:
		return "invariant_violation"
	case Undefined:
		return "undefined"
	case CancelledOrTimedOut:
		return "cancelled_or_timed_out"
	}
	return "unknown"
}

// Tagged wraps an underlying error with a Kind so callers can recover
// structured information via errors.As.
type Tagged struct {
	Kind Kind
	err  error
}

func (t *Tagged) Error() string { return fmt.Sprintf("%s: %s", t.Kind, t.err) }
func (t *Tagged) Unwrap() error { return t.err }

func tag(kind Kind, withStack bool, format string, args ...any) *Tagged {
	msg := fmt.Sprintf(format, args...)
	var err error
	if withStack {
		err = errors.New(msg)
	} else {
		err = fmt.Errorf("%s", msg)
	}
	return &Tagged{Kind: kind, err: err}
}

// New builds an InvalidArgument error, the kind surfaced immediately at
// constructor/API-boundary call sites.
func New(format string, args ...any) *Tagged { return tag(InvalidArgument, false, format, args...) }

// NotFoundf builds a NotFound error for must-get style APIs.
func NotFoundf(format string, args ...any) *Tagged { return tag(NotFound, false, format, args...) }

// InvariantViolationf builds an InvariantViolation error with a stack
// trace attached, since these are the one kind the pipeline logs for
// diagnosis rather than just returning to the immediate caller.
func InvariantViolationf(format string, args ...any) *Tagged {
	return tag(InvariantViolation, true, format, args...)
}

// CancelledOrTimedOutf builds the cooperative-cancellation kind.
func CancelledOrTimedOutf(format string, args ...any) *Tagged {
	return tag(CancelledOrTimedOut, false, format, args...)
}

// Is reports whether err is a Tagged error of the given kind.
func Is(err error, kind Kind) bool {
	var t *Tagged
	if !errors.As(err, &t) {
		return false
	}
	return t.Kind == kind
}
