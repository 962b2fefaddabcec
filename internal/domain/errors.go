package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies failures so the HTTP layer can pick a status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindConnectionNotReady
	KindValidation
	KindPersistence
	KindDelivery
	KindVerificationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectionNotReady:
		return "CONNECTION_NOT_READY"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindPersistence:
		return "PERSISTENCE_ERROR"
	case KindDelivery:
		return "DELIVERY_ERROR"
	case KindVerificationFailed:
		return "VERIFICATION_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is the error type returned by the messaging and verification services.
// Message is safe to show to API callers; Err carries the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrConnectionNotReady is returned whenever no live WhatsApp handle exists.
var ErrConnectionNotReady = &Error{Kind: KindConnectionNotReady, Message: "WhatsApp belum terhubung"}

func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewPersistenceError(msg string, err error) error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

func NewDeliveryError(msg string, err error) error {
	return &Error{Kind: KindDelivery, Message: msg, Err: err}
}

func NewVerificationFailed(msg string) error {
	return &Error{Kind: KindVerificationFailed, Message: msg}
}

// KindOf reports the ErrorKind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
