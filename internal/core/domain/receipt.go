package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CallbackPayload is what the gateway hands back through the return deep link.
type CallbackPayload struct {
	Data                string
	PaymentSessionToken string
}

// CopyText is the diagnostic block offered to the user for support requests.
func (p CallbackPayload) CopyText() string {
	return fmt.Sprintf("data: %s\npaymentSessionToken: %s", p.Data, p.PaymentSessionToken)
}

// ReceiptView is the read-only projection of a decrypted transaction.
type ReceiptView struct {
	Amount            decimal.Decimal `json:"amount"`
	MaskedPan         string          `json:"maskedPan"`
	TransactionDate   string          `json:"transactionDate"`
	AuthorizationCode string          `json:"authorizationCode"`
}

// DisplayAmount renders the amount the way the receipt screen shows it.
func (r ReceiptView) DisplayAmount() string {
	return r.Amount.StringFixed(2) + " TL"
}
