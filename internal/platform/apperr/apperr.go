// Package apperr defines the error taxonomy shared by all domain services.
// Validation and transition errors are rejected synchronously at the write
// boundary; external-service failures are recorded on the owning record and
// never propagate past the persistence boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is. Typed errors below wrap these so a
// caller can branch on the class without inspecting fields.
var (
	ErrValidation             = errors.New("validation failed")
	ErrOutOfRange             = errors.New("value out of range")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrDuplicate              = errors.New("duplicate")
	ErrUnknownReferenceTarget = errors.New("unknown reference target")
	ErrDanglingReference      = errors.New("dangling reference")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrExternalService        = errors.New("external service failure")
	ErrNotFound               = errors.New("not found")
)

// ValidationError reports a field-level violation (required/enum/shape).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a ValidationError for the given field.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// OutOfRangeError reports a bounded numeric field outside [Min, Max].
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: value %g out of range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// OutOfRange builds an OutOfRangeError.
func OutOfRange(field string, value, min, max float64) error {
	return &OutOfRangeError{Field: field, Value: value, Min: min, Max: max}
}

// TransitionError reports an illegal status transition. Both the current and
// the attempted value are always carried so callers can surface them.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %q to %q", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// InvalidTransition builds a TransitionError.
func InvalidTransition(entity, from, to string) error {
	return &TransitionError{Entity: entity, From: from, To: to}
}

// DuplicateError reports a uniqueness violation. Code identifies which
// constraint was hit: "profile", "license", "transaction" or "vote".
type DuplicateError struct {
	Code  string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Code, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// Duplicate codes for the uniqueness constraints the data layer enforces.
const (
	DupProfile     = "profile"
	DupLicense     = "license"
	DupTransaction = "transaction"
	DupVote        = "vote"
)

// Duplicate builds a DuplicateError with the given constraint code.
func Duplicate(code, value string) error {
	return &DuplicateError{Code: code, Value: value}
}

// ReferenceError reports a polymorphic reference that either names a kind
// outside the allow-list (unknown=true) or points at a row that no longer
// exists (unknown=false).
type ReferenceError struct {
	Kind    string
	ID      string
	unknown bool
}

func (e *ReferenceError) Error() string {
	if e.unknown {
		return fmt.Sprintf("unknown reference target kind %q", e.Kind)
	}
	return fmt.Sprintf("dangling reference: %s/%s", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	if e.unknown {
		return ErrUnknownReferenceTarget
	}
	return ErrDanglingReference
}

// UnknownReferenceTarget builds a ReferenceError for a disallowed kind.
func UnknownReferenceTarget(kind string) error {
	return &ReferenceError{Kind: kind, unknown: true}
}

// DanglingReference builds a ReferenceError for a missing target row.
func DanglingReference(kind, id string) error {
	return &ReferenceError{Kind: kind, ID: id}
}

// ConcurrentModification reports a lost optimistic-concurrency race. The
// caller must reload and retry against fresh state.
func ConcurrentModification(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrConcurrentModification)
}

// ExternalFailure wraps a provider error. It is recorded, not thrown past the
// boundary that owns entity persistence.
func ExternalFailure(provider string, err error) error {
	return fmt.Errorf("%s: %v: %w", provider, err, ErrExternalService)
}
