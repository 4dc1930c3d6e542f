package services

import (
	"errors"
	"fmt"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"
)

type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBusiness:
		return "business"
	}
	return "internal"
}

// Error is a classified failure whose Msg is safe to show to the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind with an empty or equal message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// ErrUnauthorized matches every Unauthorized error via errors.Is.
var ErrUnauthorized = &Error{Kind: KindUnauthorized}

func Unauthorized() error {
	return &Error{Kind: KindUnauthorized, Msg: "authentication required"}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Business(msg string) error {
	return &Error{Kind: KindBusiness, Msg: msg}
}

func Businessf(format string, args ...any) error {
	return &Error{Kind: KindBusiness, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or 0 for unexpected errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the caller-facing text of a classified error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

// notFoundAs maps repository.ErrNotFound to a NotFound error with msg and
// passes anything else through.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound(msg)
	}
	return err
}

func requireUser(actor *model.Identity) error {
	if actor == nil {
		return Unauthorized()
	}
	return nil
}

func requireAdmin(actor *model.Identity) error {
	if actor == nil {
		return Unauthorized()
	}
	if !actor.IsAdmin() {
		return Forbidden("admin role required")
	}
	return nil
}

// requireOwner allows the owning user and admins.
func requireOwner(actor *model.Identity, ownerID int64, msg string) error {
	if actor == nil {
		return Unauthorized()
	}
	if actor.UserID != ownerID && !actor.IsAdmin() {
		return Forbidden(msg)
	}
	return nil
}
