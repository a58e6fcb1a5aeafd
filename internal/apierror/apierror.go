// Package apierror defines the structured error type the core returns and
// the HTTP layer translates into status codes (spec.md §7).
//
// Modeled on the teacher's internal/engine RuntimeError: one exported error
// struct carrying a machine-readable Kind plus a human Detail, instead of a
// grab-bag of ad-hoc fmt.Errorf strings the transport layer has to sniff.
package apierror

import "fmt"

// Kind categorizes an Error for transport-layer status mapping.
type Kind string

const (
	// KindInvalidInput covers schema/shape violations, illegal deltas, move-into-descendant,
	// delete without force, unsupported sync command types, cyclic import.
	KindInvalidInput Kind = "invalid_input"
	// KindUnauthenticated covers a missing/invalid/expired access or refresh token.
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden covers non-membership in the targeted warehouse, invite email mismatch.
	KindForbidden Kind = "forbidden"
	// KindNotFound covers an absent or soft-deleted entity where a live view was requested.
	KindNotFound Kind = "not_found"
	// KindConflict covers a taken email on signup.
	KindConflict Kind = "conflict"
)

// Error is the structured error kind returned by every core component.
// User-visible failures carry only Detail — no stack traces, no internal identifiers.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// New constructs an Error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf constructs an Error of the given kind with a formatted detail.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WithField attaches a structured field and returns the same Error for chaining.
func (e *Error) WithField(key, value string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string, 1)
	}
	e.Fields[key] = value
	return e
}

// NotFound is a shorthand for the common "entity absent or soft-deleted" case.
func NotFound(entity string) *Error {
	return Newf(KindNotFound, "%s not found", entity)
}

// Forbidden is a shorthand for the common membership-gate rejection.
func Forbidden(detail string) *Error {
	return New(KindForbidden, detail)
}

// InvalidInput is a shorthand for a 400-class validation failure.
func InvalidInput(detail string) *Error {
	return New(KindInvalidInput, detail)
}
