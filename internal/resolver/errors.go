package resolver

import (
	"errors"
	"strings"
)

// Kind classifies a pipeline failure for the caller.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindAuthorization is a permission gate denial. Never retried.
	KindAuthorization
	// KindValidation is a rejected input, e.g. a slug collision or a
	// malformed filter. Messages name the offending fields.
	KindValidation
	// KindNotFound is an absent anchor record.
	KindNotFound
	// KindPersistence is a storage failure or constraint violation,
	// surfaced as-is and never retried by the pipeline.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is the structured failure callers receive from a pipeline: a kind
// plus one or more messages. Non-fatal validation warnings collected before
// a fatal stop are reported together in Messages.
type Error struct {
	Kind     Kind
	Messages []string

	cause error
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + strings.Join(e.Messages, "; ")
}

func (e *Error) Unwrap() error { return e.cause }

// WithMessages returns a copy of e carrying the given messages ahead of
// its own. Callers attach non-fatal warnings collected before a fatal
// stage failure, so the fatal error reports everything at once.
func (e *Error) WithMessages(messages ...string) *Error {
	if len(messages) == 0 {
		return e
	}

	merged := make([]string, 0, len(messages)+len(e.Messages))
	merged = append(merged, messages...)
	merged = append(merged, e.Messages...)

	return &Error{Kind: e.Kind, Messages: merged, cause: e.cause}
}

// Constructors used by stages.

func AuthorizationError(operation string) *Error {
	return &Error{
		Kind:     KindAuthorization,
		Messages: []string{"not allowed to perform " + operation},
	}
}

func ValidationError(messages ...string) *Error {
	return &Error{Kind: KindValidation, Messages: messages}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{message}}
}

func PersistenceError(err error) *Error {
	return &Error{
		Kind:     KindPersistence,
		Messages: []string{err.Error()},
		cause:    err,
	}
}

// KindOf extracts the failure kind from err, or KindUnknown for errors that
// did not originate in a pipeline stage.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
