package api

import (
	"errors"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/repository"
)

// ErrorKind classifies a facade failure so callers can branch on it.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindInvalid         ErrorKind = "invalid"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindConflict        ErrorKind = "conflict"
	KindStorage         ErrorKind = "storage"
	KindAudit           ErrorKind = "audit"
	KindCanceled        ErrorKind = "canceled"
	KindInternal        ErrorKind = "internal"
)

// Error is returned by every facade operation that fails.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalid         = &Error{Kind: KindInvalid, Message: "invalid request"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "not signed in"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "operation not permitted"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrStorage         = &Error{Kind: KindStorage, Message: "storage failure"}
	ErrCanceled        = &Error{Kind: KindCanceled, Message: "canceled"}
	ErrInternal        = &Error{Kind: KindInternal, Message: "internal error"}

	// ErrAuditNotRecorded accompanies a mutation that succeeded but whose
	// audit entry could not be written.
	ErrAuditNotRecorded = &Error{Kind: KindAudit, Message: "audit entry not recorded"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err, or an empty kind when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classify converts a lower layer error into an *Error for op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op != "" {
			return e
		}
		// never mutate a sentinel
		cp := *e
		cp.Op = op
		return &cp
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindNotFound, op, "not found", err)
	case errors.Is(err, repository.ErrInvalid):
		return newError(KindInvalid, op, "invalid record", err)
	case errors.Is(err, repository.ErrDuplicateID):
		return newError(KindConflict, op, "id already in use", err)
	case errors.Is(err, access.ErrDenied):
		return newError(KindForbidden, op, "operation not permitted", err)
	}
	return newError(KindStorage, op, "storage failure", err)
}
