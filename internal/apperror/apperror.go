// internal/apperror/apperror.go

// Package apperror defines the error kinds handlers translate into API responses.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindPaymentNotVerified Kind = "PAYMENT_NOT_VERIFIED"
	KindProductUnavailable Kind = "PRODUCT_UNAVAILABLE"
	KindOrderNotEditable   Kind = "ORDER_NOT_EDITABLE"
	KindConflict           Kind = "CONFLICT"
	KindUploadFailure      Kind = "UPLOAD_FAILURE"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	// Key is an optional i18n message key used instead of Message when rendering.
	Key    string
	Args   []interface{}
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Key == ""
}

// WithKey attaches an i18n key and its arguments.
func (e *Error) WithKey(key string, args ...interface{}) *Error {
	e.Key = key
	e.Args = args
	return e
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrPaymentNotVerified = &Error{Kind: KindPaymentNotVerified}
	ErrProductUnavailable = &Error{Kind: KindProductUnavailable}
	ErrOrderNotEditable   = &Error{Kind: KindOrderNotEditable}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrUploadFailure      = &Error{Kind: KindUploadFailure}
	ErrInternal           = &Error{Kind: KindInternal}
)

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a validation error carrying field details.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Field is shorthand for a single-field validation error.
func Field(field, message string) *Error {
	return Validation(message, FieldError{Field: field, Message: message})
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found", Key: resource + ".not_found"}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As unwraps err into an *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
