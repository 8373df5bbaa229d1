package domain

import (
	"testing"
)

func TestNewPayment(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		planID   string
		amount   int64
		currency string
		wantErr  bool
	}{
		{
			name:     "valid payment",
			userID:   "user-001",
			planID:   "plan-001",
			amount:   25000,
			currency: "gbp",
		},
		{
			name:    "missing user ID",
			planID:  "plan-001",
			amount:  25000,
			wantErr: true,
		},
		{
			name:    "missing plan ID",
			userID:  "user-001",
			amount:  25000,
			wantErr: true,
		},
		{
			name:    "zero amount",
			userID:  "user-001",
			planID:  "plan-001",
			amount:  0,
			wantErr: true,
		},
		{
			name:    "negative amount",
			userID:  "user-001",
			planID:  "plan-001",
			amount:  -100,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment, err := NewPayment(tt.userID, tt.planID, tt.amount, tt.currency)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewPayment() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPayment() error = %v", err)
			}
			if payment.Status != PaymentStatusPending {
				t.Errorf("Status = %v, want %v", payment.Status, PaymentStatusPending)
			}
			if payment.ID == "" {
				t.Error("ID should be generated")
			}
		})
	}
}

func TestNewPayment_DefaultCurrency(t *testing.T) {
	payment, err := NewPayment("user-001", "plan-001", 25000, "")
	if err != nil {
		t.Fatalf("NewPayment() error = %v", err)
	}
	if payment.Currency != "gbp" {
		t.Errorf("Currency = %v, want gbp", payment.Currency)
	}
}

func TestPayment_Transitions(t *testing.T) {
	t.Run("pending can succeed", func(t *testing.T) {
		payment, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		if err := payment.MarkSucceeded(); err != nil {
			t.Fatalf("MarkSucceeded() error = %v", err)
		}
		if payment.Status != PaymentStatusSucceeded {
			t.Errorf("Status = %v, want %v", payment.Status, PaymentStatusSucceeded)
		}
		if payment.PaidAt == nil {
			t.Error("PaidAt should be set")
		}
	})

	t.Run("pending can fail with reason", func(t *testing.T) {
		payment, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		if err := payment.MarkFailed("card_declined"); err != nil {
			t.Fatalf("MarkFailed() error = %v", err)
		}
		if payment.FailureReason != "card_declined" {
			t.Errorf("FailureReason = %v, want card_declined", payment.FailureReason)
		}
		if payment.FailedAt == nil {
			t.Error("FailedAt should be set")
		}
	})

	t.Run("pending can be cancelled", func(t *testing.T) {
		payment, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		if err := payment.Cancel(); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if payment.Status != PaymentStatusCancelled {
			t.Errorf("Status = %v, want %v", payment.Status, PaymentStatusCancelled)
		}
	})

	t.Run("succeeded can be refunded", func(t *testing.T) {
		payment, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		_ = payment.MarkSucceeded()

		if err := payment.MarkRefunded(); err != nil {
			t.Fatalf("MarkRefunded() error = %v", err)
		}
		if payment.Status != PaymentStatusRefunded {
			t.Errorf("Status = %v, want %v", payment.Status, PaymentStatusRefunded)
		}
		if payment.RefundedAt == nil {
			t.Fatal("RefundedAt should be set")
		}

		// RefundedAt is set exactly once
		first := *payment.RefundedAt
		if err := payment.MarkRefunded(); err == nil {
			t.Error("MarkRefunded() twice should error")
		}
		if !payment.RefundedAt.Equal(first) {
			t.Error("RefundedAt must not move on a repeated refund")
		}
		if !payment.IsFinal() {
			t.Error("refunded payment should be final")
		}
	})

	t.Run("only succeeded payments can be refunded", func(t *testing.T) {
		pending, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		if err := pending.MarkRefunded(); err == nil {
			t.Error("MarkRefunded() on pending payment should error")
		}

		failed, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		_ = failed.MarkFailed("card_declined")
		if err := failed.MarkRefunded(); err == nil {
			t.Error("MarkRefunded() on failed payment should error")
		}
	})

	t.Run("terminal states refuse further transitions", func(t *testing.T) {
		payment, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
		_ = payment.MarkSucceeded()

		if err := payment.MarkFailed("too late"); err == nil {
			t.Error("MarkFailed() on succeeded payment should error")
		}
		if err := payment.Cancel(); err == nil {
			t.Error("Cancel() on succeeded payment should error")
		}
		if err := payment.MarkSucceeded(); err == nil {
			t.Error("MarkSucceeded() twice should error")
		}
		if !payment.IsFinal() {
			t.Error("succeeded payment should be final")
		}
	})
}

func TestPayment_SetStripeIntent(t *testing.T) {
	payment, _ := NewPayment("user-001", "plan-001", 25000, "gbp")
	payment.SetStripeIntent("pi_123", "pi_123_secret_abc")

	if payment.StripePaymentIntentID != "pi_123" {
		t.Errorf("StripePaymentIntentID = %v, want pi_123", payment.StripePaymentIntentID)
	}
	if payment.StripeClientSecret != "pi_123_secret_abc" {
		t.Errorf("StripeClientSecret not stored")
	}
	if !payment.IsPending() {
		t.Error("attaching an intent must not change the status")
	}
}
