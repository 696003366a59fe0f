package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

type mockRepo struct{ store map[uuid.UUID]*Payment }

func newMockRepo() *mockRepo { return &mockRepo{store: make(map[uuid.UUID]*Payment)} }
func (m *mockRepo) Create(_ context.Context, p *Payment) error {
	for _, e := range m.store {
		if e.TransactionID == p.TransactionID {
			return apperr.Duplicate(apperr.DupTransaction, p.TransactionID)
		}
	}
	p.ID = uuid.New()
	p.VersionID = 1
	cp := *p
	m.store[p.ID] = &cp
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Payment, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	if p.Refund != nil {
		r := *p.Refund
		cp.Refund = &r
	}
	return &cp, nil
}
func (m *mockRepo) GetByTransactionID(_ context.Context, txID string) (*Payment, error) {
	for _, p := range m.store {
		if p.TransactionID == txID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}
func (m *mockRepo) Update(_ context.Context, p *Payment) error {
	cur, ok := m.store[p.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if cur.VersionID != p.VersionID {
		return apperr.ConcurrentModification("payment", p.ID.String())
	}
	p.VersionID++
	cp := *p
	m.store[p.ID] = &cp
	return nil
}
func (m *mockRepo) ListByPayer(_ context.Context, pid uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	var r []*Payment
	for _, p := range m.store {
		if p.PayerID == pid {
			r = append(r, p)
		}
	}
	return r, len(r), nil
}
func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error) {
	var r []*Payment
	for _, p := range m.store {
		r = append(r, p)
	}
	return r, len(r), nil
}

// resolver backed by a fixed set of live consultation IDs
func testResolver(live ...uuid.UUID) *serviceref.Resolver {
	set := make(map[uuid.UUID]bool)
	for _, id := range live {
		set[id] = true
	}
	res := serviceref.NewResolver()
	res.Register(serviceref.KindConsultation, func(_ context.Context, id uuid.UUID) (bool, error) {
		return set[id], nil
	})
	res.Register(serviceref.KindSupportRequest, func(_ context.Context, id uuid.UUID) (bool, error) {
		return set[id], nil
	})
	return res
}

func validPayment(svcID uuid.UUID) *Payment {
	return &Payment{
		PayerID:       uuid.New(),
		Service:       serviceref.Ref{Kind: serviceref.KindConsultation, ID: svcID},
		TransactionID: "TX-" + uuid.NewString(),
		Amount:        100000,
		ServiceFee:    5000,
		PlatformFee:   2000,
		Discount:      1000,
	}
}

func TestCreate_ComputesTotal(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalAmount != 106000 {
		t.Errorf("expected total 106000, got %d", p.TotalAmount)
	}
	if p.Status != "pending" {
		t.Errorf("expected status pending, got %q", p.Status)
	}
}

func TestCreate_RejectsWrongTotal(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	p.TotalAmount = 999999
	if err := svc.Create(context.Background(), p); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_AcceptsMatchingTotal(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	p.TotalAmount = 106000
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_DuplicateTransaction(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p1 := validPayment(svcID)
	p1.TransactionID = "TX-1"
	svc.Create(context.Background(), p1)
	p2 := validPayment(svcID)
	p2.TransactionID = "TX-1"
	err := svc.Create(context.Background(), p2)
	var dup *apperr.DuplicateError
	if !errors.As(err, &dup) || dup.Code != apperr.DupTransaction {
		t.Fatalf("expected DupTransaction, got %v", err)
	}
}

func TestCreate_UnknownReferenceKind(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	p.Service.Kind = "medication_reminder"
	if err := svc.Create(context.Background(), p); !errors.Is(err, apperr.ErrUnknownReferenceTarget) {
		t.Fatalf("expected unknown reference target, got %v", err)
	}
}

func TestCreate_DanglingReference(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	p := validPayment(uuid.New())
	if err := svc.Create(context.Background(), p); !errors.Is(err, apperr.ErrDanglingReference) {
		t.Fatalf("expected dangling reference, got %v", err)
	}
}

func TestCreate_MissingReference(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	p := validPayment(uuid.New())
	p.Service = serviceref.Ref{}
	if err := svc.Create(context.Background(), p); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func completedPayment(t *testing.T, svc *Service, svcID uuid.UUID) *Payment {
	t.Helper()
	p := validPayment(svcID)
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	var err error
	for _, next := range []string{"processing", "completed"} {
		p, err = svc.UpdateStatus(context.Background(), p.ID, next, p.VersionID)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	return p
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	if p.Status != "completed" {
		t.Errorf("expected completed, got %q", p.Status)
	}
}

func TestUpdateStatus_FailedIsTerminal(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	svc.Create(context.Background(), p)
	p, _ = svc.UpdateStatus(context.Background(), p.ID, "failed", p.VersionID)
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "pending", p.VersionID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("failed should be terminal, got %v", err)
	}
}

func TestUpdateStatus_RefundedNotSettableDirectly(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "refunded", p.VersionID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("direct refunded write should fail, got %v", err)
	}
}

func TestRefund_FullLifecycle(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	p, err := svc.RequestRefund(context.Background(), p.ID, p.TotalAmount, "service not delivered", p.VersionID)
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}
	if p.Refund == nil || p.Refund.Status != "requested" {
		t.Fatalf("refund not opened: %+v", p.Refund)
	}
	for _, next := range []string{"approved", "processing", "completed"} {
		p, err = svc.UpdateRefund(context.Background(), p.ID, next, p.VersionID)
		if err != nil {
			t.Fatalf("refund transition to %s: %v", next, err)
		}
	}
	if p.Status != "refunded" {
		t.Errorf("full refund should mark payment refunded, got %q", p.Status)
	}
	if p.Refund.ProcessedAt == nil {
		t.Error("processed_at not set")
	}
}

func TestRefund_PartialMarksPartiallyRefunded(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	p, err := svc.RequestRefund(context.Background(), p.ID, p.TotalAmount/2, "partial", p.VersionID)
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}
	for _, next := range []string{"approved", "processing", "completed"} {
		p, err = svc.UpdateRefund(context.Background(), p.ID, next, p.VersionID)
		if err != nil {
			t.Fatalf("refund transition to %s: %v", next, err)
		}
	}
	if p.Status != "partially_refunded" {
		t.Errorf("expected partially_refunded, got %q", p.Status)
	}
}

func TestRefund_PartiallyRefundedIsTerminal(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	p, err := svc.RequestRefund(context.Background(), p.ID, p.TotalAmount/2, "partial", p.VersionID)
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}
	for _, next := range []string{"approved", "processing", "completed"} {
		p, err = svc.UpdateRefund(context.Background(), p.ID, next, p.VersionID)
		if err != nil {
			t.Fatalf("refund transition to %s: %v", next, err)
		}
	}
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "refunded", p.VersionID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("partially_refunded -> refunded should be rejected, got %v", err)
	}
	if _, err := svc.RequestRefund(context.Background(), p.ID, p.TotalAmount/2, "again", p.VersionID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("second refund should be rejected, got %v", err)
	}
}

func TestRefund_OnlyOnCompleted(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	svc.Create(context.Background(), p)
	if _, err := svc.RequestRefund(context.Background(), p.ID, 1000, "too early", p.VersionID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("refund on pending payment should fail, got %v", err)
	}
}

func TestRefund_Rejected(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	p, _ = svc.RequestRefund(context.Background(), p.ID, 1000, "r", p.VersionID)
	p, err := svc.UpdateRefund(context.Background(), p.ID, "rejected", p.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != "completed" {
		t.Errorf("rejected refund must not change payment status, got %q", p.Status)
	}
	if _, err := svc.UpdateRefund(context.Background(), p.ID, "approved", p.VersionID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("rejected refund should be terminal, got %v", err)
	}
}

func TestRefund_AmountBounds(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := completedPayment(t, svc, svcID)
	if _, err := svc.RequestRefund(context.Background(), p.ID, p.TotalAmount+1, "too much", p.VersionID); !errors.Is(err, apperr.ErrOutOfRange) {
		t.Fatalf("over-refund should fail, got %v", err)
	}
	if _, err := svc.RequestRefund(context.Background(), p.ID, 0, "zero", p.VersionID); !errors.Is(err, apperr.ErrOutOfRange) {
		t.Fatalf("zero refund should fail, got %v", err)
	}
}

func TestUpdateStatus_StaleVersion(t *testing.T) {
	svcID := uuid.New()
	svc := NewService(newMockRepo(), testResolver(svcID))
	p := validPayment(svcID)
	svc.Create(context.Background(), p)
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "processing", p.VersionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.UpdateStatus(context.Background(), p.ID, "cancelled", p.VersionID)
	if !errors.Is(err, apperr.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}
