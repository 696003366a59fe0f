// Package serviceref models polymorphic references to a bookable service
// instance. A reference is a tagged union of a kind discriminator and the
// target's identity; the allow-list is fixed to consultations and support
// requests. Resolution goes through an explicit kind → lookup registry.
package serviceref

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
)

// Kinds a service reference may name.
const (
	KindConsultation   = "consultation"
	KindSupportRequest = "support_request"
)

// Ref is a tagged reference into one of the service collections.
type Ref struct {
	Kind string    `db:"service_kind" json:"service_kind"`
	ID   uuid.UUID `db:"service_id" json:"service_id"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return r.Kind == "" && r.ID == uuid.Nil }

// Validate checks the discriminator against the allow-list and that an ID is
// present when a kind is declared.
func (r Ref) Validate() error {
	if r.IsZero() {
		return nil
	}
	if r.Kind != KindConsultation && r.Kind != KindSupportRequest {
		return apperr.UnknownReferenceTarget(r.Kind)
	}
	if r.ID == uuid.Nil {
		return apperr.Validation("service_id", "required when service_kind is set")
	}
	return nil
}

// Lookup reports whether a row with the given ID exists in one collection.
type Lookup func(ctx context.Context, id uuid.UUID) (bool, error)

// Resolver resolves references through per-kind lookups. No reflection: each
// kind is bound to exactly one repository lookup at wiring time.
type Resolver struct {
	lookups map[string]Lookup
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{lookups: make(map[string]Lookup)}
}

// Register binds a kind to its lookup.
func (r *Resolver) Register(kind string, fn Lookup) {
	r.lookups[kind] = fn
}

// Resolve verifies that the reference points at a live row. It fails with
// UnknownReferenceTarget for a kind without a registered lookup and with
// DanglingReference when the target row is gone, never an empty success.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if ref.IsZero() {
		return nil
	}
	fn, ok := r.lookups[ref.Kind]
	if !ok {
		return apperr.UnknownReferenceTarget(ref.Kind)
	}
	exists, err := fn(ctx, ref.ID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.DanglingReference(ref.Kind, ref.ID.String())
	}
	return nil
}
