package lifecycle

import (
	"errors"
	"testing"

	"github.com/carelink/carelink/internal/platform/apperr"
)

func TestConsultation_HappyPath(t *testing.T) {
	steps := []string{"scheduled", "confirmed", "in_progress", "completed"}
	for i := 0; i < len(steps)-1; i++ {
		if err := Consultation.Check(steps[i], steps[i+1]); err != nil {
			t.Errorf("%s -> %s should be legal: %v", steps[i], steps[i+1], err)
		}
	}
}

func TestConsultation_TerminalRejectsAll(t *testing.T) {
	for _, terminal := range []string{"completed", "cancelled", "no_show"} {
		for _, to := range []string{"scheduled", "confirmed", "in_progress", "completed", terminal} {
			err := Consultation.Check(terminal, to)
			if err == nil {
				t.Errorf("%s -> %s should be rejected", terminal, to)
				continue
			}
			var te *apperr.TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("expected *TransitionError, got %T", err)
			}
			if te.From != terminal || te.To != to {
				t.Errorf("error should report both values, got %q -> %q", te.From, te.To)
			}
		}
	}
}

func TestConsultation_CompletedToScheduledFails(t *testing.T) {
	if err := Consultation.Check("completed", "scheduled"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestConsultation_SkippingStatesFails(t *testing.T) {
	if err := Consultation.Check("scheduled", "completed"); err == nil {
		t.Fatal("scheduled -> completed should be rejected")
	}
	if err := Consultation.Check("scheduled", "in_progress"); err == nil {
		t.Fatal("scheduled -> in_progress should be rejected")
	}
}

func TestSupportRequest_Diversions(t *testing.T) {
	if err := SupportRequest.Check("pending", "rejected"); err != nil {
		t.Errorf("pending -> rejected should be legal: %v", err)
	}
	if err := SupportRequest.Check("accepted", "rejected"); err == nil {
		t.Error("accepted -> rejected should be rejected")
	}
	if err := SupportRequest.Check("rejected", "pending"); err == nil {
		t.Error("rejected is terminal")
	}
}

func TestPayment_RefundOnlyAfterCompletion(t *testing.T) {
	if err := Payment.Check("completed", "refunded"); err != nil {
		t.Errorf("completed -> refunded should be legal: %v", err)
	}
	if err := Payment.Check("completed", "partially_refunded"); err != nil {
		t.Errorf("completed -> partially_refunded should be legal: %v", err)
	}
	if err := Payment.Check("pending", "refunded"); err == nil {
		t.Error("pending -> refunded should be rejected")
	}
	if err := Payment.Check("partially_refunded", "refunded"); err == nil {
		t.Error("partially_refunded -> refunded should be rejected")
	}
	if !Payment.Terminal("partially_refunded") {
		t.Error("partially_refunded should be terminal")
	}
}

func TestRefund_Lifecycle(t *testing.T) {
	for _, tc := range []struct {
		from, to string
		ok       bool
	}{
		{"requested", "approved", true},
		{"requested", "rejected", true},
		{"approved", "processing", true},
		{"processing", "completed", true},
		{"requested", "completed", false},
		{"rejected", "approved", false},
		{"completed", "requested", false},
	} {
		err := Refund.Check(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s should be legal: %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestEmergencyAlert_FalseAlarmFromAnyNonTerminal(t *testing.T) {
	for _, from := range []string{"active", "acknowledged"} {
		if err := EmergencyAlert.Check(from, "false_alarm"); err != nil {
			t.Errorf("%s -> false_alarm should be legal: %v", from, err)
		}
	}
	if err := EmergencyAlert.Check("resolved", "false_alarm"); err == nil {
		t.Error("resolved is terminal")
	}
}

func TestTerminal(t *testing.T) {
	if !Payment.Terminal("refunded") || !Payment.Terminal("failed") {
		t.Error("refunded and failed should be terminal")
	}
	if Payment.Terminal("completed") {
		t.Error("completed allows refund transitions, not terminal")
	}
}

func TestKnown(t *testing.T) {
	if !Consultation.Known("no_show") {
		t.Error("no_show should be known")
	}
	if Consultation.Known("bogus") {
		t.Error("bogus should be unknown")
	}
}
