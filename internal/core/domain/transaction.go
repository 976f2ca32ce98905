package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operation names one partner endpoint.
type Operation string

const (
	OperationPayment  Operation = "payment"
	OperationRefund   Operation = "refund"
	OperationDecrypt  Operation = "decrypt"
	OperationUserList Operation = "userList"
)

// DefaultPaymentSource is sent when the caller does not pick one.
const DefaultPaymentSource = "iyzico"

// PaymentRequest is the body of POST /v2/in-store/payment.
type PaymentRequest struct {
	Amount        string `json:"amount"`
	Email         string `json:"email"`
	PaymentSource string `json:"paymentSource"`
}

// RefundRequest is the body of POST /v2/in-store/payment/refund.
type RefundRequest struct {
	RefundAmount string `json:"refundAmount"`
	PaymentID    string `json:"paymentId"`
	Email        string `json:"email"`
}

// DecryptRequest is the body of POST /v2/in-store/crypt/decrypt.
type DecryptRequest struct {
	Data                string `json:"data"`
	PaymentSessionToken string `json:"paymentSessionToken"`
}

// AttemptKind tells payments, refunds and callback resolutions apart in audit events.
type AttemptKind string

const (
	AttemptPayment  AttemptKind = "payment"
	AttemptRefund   AttemptKind = "refund"
	AttemptCallback AttemptKind = "callback"
)

// AttemptEvent records the terminal state of one user action.
// It never carries secrets or callback ciphertext.
type AttemptEvent struct {
	ID          uuid.UUID
	Kind        AttemptKind
	State       string
	Environment Environment
	MerchantID  string
	Email       string
	Amount      string
	Message     string
	OccurredAt  time.Time
}

// NewAttemptEvent stamps an event with a fresh id and the current time.
func NewAttemptEvent(kind AttemptKind, state string) AttemptEvent {
	return AttemptEvent{
		ID:         uuid.New(),
		Kind:       kind,
		State:      state,
		OccurredAt: time.Now().UTC(),
	}
}
