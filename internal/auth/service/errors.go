package service

import (
	"errors"
)

// Token and lookup failures. These stay inside the service layer; the
// orchestrator folds them into an *Error before they reach a caller.
var (
	ErrInvalidToken    = errors.New("service: invalid token")
	ErrExpiredToken    = errors.New("service: token expired")
	ErrPurposeMismatch = errors.New("service: token purpose mismatch")
	ErrTokenNotFound   = errors.New("service: token not found")
	ErrInvalidPurpose  = errors.New("service: purpose cannot be persisted")
	ErrUserNotFound    = errors.New("service: user not found")
)

// Messages shown to clients.
const (
	MsgIncorrectCredentials    = "Incorrect email or password"
	MsgPleaseAuthenticate      = "Please authenticate"
	MsgPasswordResetFailed     = "Password reset failed"
	MsgEmailVerificationFailed = "Email verification failed"
	MsgNotFound                = "Not found"
)

// Kind classifies an Error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
)

// Error is returned by the orchestrator. Message is safe to show a client
// and is all Error() renders; Err is the underlying cause, reachable through
// errors.Is/As and meant only for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func unauthorized(msg string, err error) error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: err}
}

func notFound(err error) error {
	return &Error{Kind: KindNotFound, Message: MsgNotFound, Err: err}
}

func validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}
