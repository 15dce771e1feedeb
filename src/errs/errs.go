package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Other               Kind = ""
	NotFound            Kind = "not_found"
	Forbidden           Kind = "forbidden"
	InvalidInput        Kind = "invalid_input"
	InvalidTransition   Kind = "invalid_transition"
	PrerequisiteMissing Kind = "prerequisite_missing"
	PricingNotFound     Kind = "pricing_not_found"
	Conflict            Kind = "conflict"
	Internal            Kind = "internal"
)

// Error carries a machine-readable Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors of the same kind and message so wrapped copies
// still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg && t.Op == ""
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func E(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Kind != Other {
				return e.Kind
			}
			err = e.Err
			continue
		}
		break
	}
	return Other
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	ErrMembershipRequired = New(PrerequisiteMissing, "active membership required for flexible bookings")
	ErrNoHousemaid        = New(PrerequisiteMissing, "no housemaid assigned to booking")
	ErrConcurrentUpdate   = New(Conflict, "booking was modified concurrently")
	ErrDuplicateRating    = New(Conflict, "booking has already been rated")
)
