package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/internal/domain/repository"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidTransition
)

// Error carries a kind and a machine-readable code. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so wrapped copies of a sentinel compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "invalid_credentials", Message: "invalid credentials"}
	ErrOtpNotApproved     = &Error{Kind: KindUnauthorized, Code: "otp_not_approved", Message: "verification code not approved"}
	ErrOtpSendFailed      = &Error{Kind: KindUpstream, Code: "otp_send_failed", Message: "could not send verification code"}
	ErrUserNotFound       = &Error{Kind: KindUnauthorized, Code: "user_not_found", Message: "no account for this phone number"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: "forbidden", Message: "insufficient role"}
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "not_found", Message: "report not found"}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition, Code: "invalid_transition", Message: "status transition not allowed"}
	ErrInternal           = &Error{Kind: KindUpstream, Code: "internal_error", Message: "internal error"}
)

// ValidationError reports malformed input, keyed by field.
func ValidationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Message: "invalid input", Fields: fields}
}

// upstream wraps a collaborator failure; the cause is logged, never shown.
func upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
}

// KindOf classifies err. Anything unrecognised is an upstream failure.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return KindNotFound
	case errors.Is(err, entity.ErrInvalidTransition):
		return KindInvalidTransition
	}
	return KindUpstream
}

// AsError returns err as an *Error, mapping domain sentinels and hiding anything else
// behind ErrInternal.
func AsError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch KindOf(err) {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidTransition:
		return ErrInvalidTransition
	}
	return upstream(err)
}
