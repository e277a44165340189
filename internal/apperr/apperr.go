// Package apperr defines the error taxonomy shared by the tracker service.
//
// Every failure that crosses a package boundary is a *DomainError carrying a
// Kind, so transports can map it to a status code without string matching.
package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	KindAuth       Kind = "AUTH"
	KindStoreWrite Kind = "STORE_WRITE"
	KindNotFound   Kind = "NOT_FOUND"
	KindValidation Kind = "VALIDATION"
	KindInternal   Kind = "INTERNAL"
)

type DomainError struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

// New builds a DomainError, capturing the stack of err when it has one.
func New(kind Kind, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// Auth is a sign-in / sign-up failure. Message is shown to the user as-is.
func Auth(message string, err error) *DomainError {
	return New(KindAuth, message, err)
}

// StoreWrite is a failed create, update or delete against the record store.
func StoreWrite(message string, err error) *DomainError {
	return New(KindStoreWrite, message, err)
}

func NotFound(message string, err error) *DomainError {
	return New(KindNotFound, message, err)
}

func Validation(message string, err error) *DomainError {
	return New(KindValidation, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(KindInternal, message, err)
}

// KindOf returns the Kind of the outermost DomainError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether any DomainError in err's chain has the given kind.
// A StoreWrite wrapping a NotFound matches both.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			return false
		}
		if de.Kind == kind {
			return true
		}
		err = de.Err
	}
	return false
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}
