package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/relay"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

type mockRepo struct{ store map[uuid.UUID]*Notification }

func newMockRepo() *mockRepo { return &mockRepo{store: make(map[uuid.UUID]*Notification)} }
func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	n.ID = uuid.New()
	n.VersionID = 1
	cp := *n
	cp.Attempts = append([]DeliveryAttempt(nil), n.Attempts...)
	m.store[n.ID] = &cp
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *n
	cp.Attempts = append([]DeliveryAttempt(nil), n.Attempts...)
	return &cp, nil
}
func (m *mockRepo) Update(_ context.Context, n *Notification) error {
	cur, ok := m.store[n.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if cur.VersionID != n.VersionID {
		return apperr.ConcurrentModification("notification", n.ID.String())
	}
	n.VersionID++
	cp := *n
	cp.Attempts = append([]DeliveryAttempt(nil), n.Attempts...)
	m.store[n.ID] = &cp
	return nil
}
func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error { delete(m.store, id); return nil }
func (m *mockRepo) ListByRecipient(_ context.Context, rid uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var r []*Notification
	for _, n := range m.store {
		if n.RecipientID == rid {
			r = append(r, n)
		}
	}
	return r, len(r), nil
}
func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Notification, int, error) {
	var r []*Notification
	for _, n := range m.store {
		r = append(r, n)
	}
	return r, len(r), nil
}

type fakeSMS struct {
	sent []string
	fail bool
}

func (f *fakeSMS) Send(_ context.Context, to, _ string) *relay.SMSResult {
	f.sent = append(f.sent, to)
	if f.fail {
		return &relay.SMSResult{Success: false, Message: "provider unavailable"}
	}
	return &relay.SMSResult{Success: true}
}

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

func newTestService(live ...uuid.UUID) *Service {
	return NewService(newMockRepo(), testResolver(live...), zerolog.Nop())
}

func generalNotification() *Notification {
	return &Notification{
		RecipientID: uuid.New(),
		Type:        TypeGeneral,
		Title:       "welcome",
		Message:     "your account is ready",
	}
}

func TestCreate_DefaultsStatusSent(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	if err := svc.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != "sent" {
		t.Errorf("expected default status sent, got %q", n.Status)
	}
}

func TestCreate_MedicationReminderRequiresMedicationID(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	n.Type = TypeMedicationReminder
	err := svc.Create(context.Background(), n)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "data.medication_id" {
		t.Errorf("error should name the missing field, got %q", ve.Field)
	}

	medID := uuid.New()
	n = generalNotification()
	n.Type = TypeMedicationReminder
	n.Data.MedicationID = &medID
	if err := svc.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_RejectsIrrelevantPayloadFields(t *testing.T) {
	svc := newTestService()
	medID, alertID := uuid.New(), uuid.New()
	n := generalNotification()
	n.Type = TypeMedicationReminder
	n.Data.MedicationID = &medID
	n.Data.AlertID = &alertID
	if err := svc.Create(context.Background(), n); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("fields outside the declared type must be rejected, got %v", err)
	}
}

func TestCreate_AppointmentReminderResolvesReference(t *testing.T) {
	live := uuid.New()
	svc := newTestService(live)
	kind := serviceref.KindConsultation

	n := generalNotification()
	n.Type = TypeAppointmentReminder
	n.Data.AppointmentID = &live
	n.Data.ServiceKind = &kind
	if err := svc.Create(context.Background(), n); err != nil {
		t.Fatalf("live appointment reference should resolve: %v", err)
	}

	gone := uuid.New()
	n = generalNotification()
	n.Type = TypeAppointmentReminder
	n.Data.AppointmentID = &gone
	n.Data.ServiceKind = &kind
	if err := svc.Create(context.Background(), n); !errors.Is(err, apperr.ErrDanglingReference) {
		t.Errorf("expected dangling reference, got %v", err)
	}

	bad := "invoice"
	n = generalNotification()
	n.Type = TypeAppointmentReminder
	n.Data.AppointmentID = &live
	n.Data.ServiceKind = &bad
	if err := svc.Create(context.Background(), n); !errors.Is(err, apperr.ErrUnknownReferenceTarget) {
		t.Errorf("expected unknown reference target, got %v", err)
	}
}

func TestCreate_AppointmentReminderRequiresKind(t *testing.T) {
	svc := newTestService()
	apptID := uuid.New()
	n := generalNotification()
	n.Type = TypeAppointmentReminder
	n.Data.AppointmentID = &apptID
	if err := svc.Create(context.Background(), n); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_EmergencyAlertRequiresAlertID(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	n.Type = TypeEmergencyAlert
	if err := svc.Create(context.Background(), n); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	alertID := uuid.New()
	n.Data.AlertID = &alertID
	if err := svc.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_UnknownType(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	n.Type = "carrier_pigeon"
	if err := svc.Create(context.Background(), n); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	svc.Create(context.Background(), n)
	got, err := svc.MarkRead(context.Background(), n.ID, n.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "read" || got.ReadAt == nil {
		t.Errorf("expected read status with a timestamp, got %+v", got)
	}
}

func TestDispatch_SMSSuccessRecordsSentAttempt(t *testing.T) {
	sms := &fakeSMS{}
	svc := newTestService()
	svc.SetDispatch(sms)
	n := generalNotification()
	svc.Create(context.Background(), n)

	got, err := svc.Dispatch(context.Background(), n.ID, "sms", "+84901234567", n.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Attempts) != 1 || got.Attempts[0].Status != "sent" || got.Attempts[0].Channel != "sms" {
		t.Errorf("expected one sent sms attempt, got %+v", got.Attempts)
	}
	if len(sms.sent) != 1 || sms.sent[0] != "+84901234567" {
		t.Errorf("provider should be called once, got %v", sms.sent)
	}
}

func TestDispatch_ProviderFailureRecordsFailedAttempt(t *testing.T) {
	sms := &fakeSMS{fail: true}
	svc := newTestService()
	svc.SetDispatch(sms)
	n := generalNotification()
	svc.Create(context.Background(), n)

	got, err := svc.Dispatch(context.Background(), n.ID, "sms", "+84901234567", n.VersionID)
	if err != nil {
		t.Fatalf("a provider failure must not surface as an error: %v", err)
	}
	if len(got.Attempts) != 1 || got.Attempts[0].Status != "failed" {
		t.Fatalf("expected a failed attempt, got %+v", got.Attempts)
	}
	if got.Attempts[0].Detail != "provider unavailable" {
		t.Errorf("attempt should carry the provider message, got %q", got.Attempts[0].Detail)
	}
	if got.Status != "sent" {
		t.Errorf("notification status is independent of delivery, got %q", got.Status)
	}
}

func TestDispatch_UnknownChannel(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	svc.Create(context.Background(), n)
	if _, err := svc.Dispatch(context.Background(), n.ID, "fax", "", n.VersionID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDispatch_UnwiredChannelStaysPending(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	svc.Create(context.Background(), n)
	got, err := svc.Dispatch(context.Background(), n.ID, "push", "", n.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Attempts) != 1 || got.Attempts[0].Status != "pending" {
		t.Errorf("expected a pending attempt, got %+v", got.Attempts)
	}
}

func TestRecordAttempt_UpdatesDeliveryReceipt(t *testing.T) {
	sms := &fakeSMS{}
	svc := newTestService()
	svc.SetDispatch(sms)
	n := generalNotification()
	svc.Create(context.Background(), n)
	got, _ := svc.Dispatch(context.Background(), n.ID, "sms", "+84901234567", n.VersionID)

	got, err := svc.RecordAttempt(context.Background(), got.ID, 0, "delivered", "", got.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Attempts[0].Status != "delivered" {
		t.Errorf("expected delivered, got %q", got.Attempts[0].Status)
	}

	if _, err := svc.RecordAttempt(context.Background(), got.ID, 5, "failed", "", got.VersionID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for a missing attempt, got %v", err)
	}
	if _, err := svc.RecordAttempt(context.Background(), got.ID, 0, "lost", "", got.VersionID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for a bad status, got %v", err)
	}
}

func TestDispatch_StaleVersion(t *testing.T) {
	svc := newTestService()
	n := generalNotification()
	svc.Create(context.Background(), n)
	if _, err := svc.Dispatch(context.Background(), n.ID, "push", "", n.VersionID+3); !errors.Is(err, apperr.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}
