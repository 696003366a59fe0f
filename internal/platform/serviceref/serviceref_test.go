package serviceref

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
)

func testResolver(existing map[uuid.UUID]bool) *Resolver {
	r := NewResolver()
	r.Register(KindConsultation, func(_ context.Context, id uuid.UUID) (bool, error) {
		return existing[id], nil
	})
	r.Register(KindSupportRequest, func(_ context.Context, id uuid.UUID) (bool, error) {
		return existing[id], nil
	})
	return r
}

func TestValidate_UnknownKind(t *testing.T) {
	ref := Ref{Kind: "rating", ID: uuid.New()}
	if err := ref.Validate(); !errors.Is(err, apperr.ErrUnknownReferenceTarget) {
		t.Fatalf("expected ErrUnknownReferenceTarget, got %v", err)
	}
}

func TestValidate_KindWithoutID(t *testing.T) {
	ref := Ref{Kind: KindConsultation}
	if err := ref.Validate(); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidate_ZeroRefAllowed(t *testing.T) {
	if err := (Ref{}).Validate(); err != nil {
		t.Fatalf("zero ref should validate: %v", err)
	}
}

func TestResolve_Exists(t *testing.T) {
	id := uuid.New()
	r := testResolver(map[uuid.UUID]bool{id: true})
	if err := r.Resolve(context.Background(), Ref{Kind: KindConsultation, ID: id}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolve_Dangling(t *testing.T) {
	r := testResolver(nil)
	err := r.Resolve(context.Background(), Ref{Kind: KindSupportRequest, ID: uuid.New()})
	if !errors.Is(err, apperr.ErrDanglingReference) {
		t.Fatalf("expected ErrDanglingReference, got %v", err)
	}
}

func TestResolve_UnregisteredKind(t *testing.T) {
	r := NewResolver()
	err := r.Resolve(context.Background(), Ref{Kind: KindConsultation, ID: uuid.New()})
	if !errors.Is(err, apperr.ErrUnknownReferenceTarget) {
		t.Fatalf("expected ErrUnknownReferenceTarget, got %v", err)
	}
}

func TestResolve_ZeroRefIsNoop(t *testing.T) {
	r := NewResolver()
	if err := r.Resolve(context.Background(), Ref{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
