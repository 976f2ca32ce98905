package domain

// State is a step of the orchestrator state machine.
type State string

const (
	StateIdle        State = "IDLE"
	StateValidating  State = "VALIDATING"
	StateSubmitting  State = "SUBMITTING"
	StateRedirecting State = "REDIRECTING"
	StateFailed      State = "FAILED"
)

// PaymentInput is what the user entered on the payment form.
type PaymentInput struct {
	Amount        string
	Email         string
	PaymentSource string
}

// RefundInput is what the user entered on the refund form.
type RefundInput struct {
	Amount    string
	PaymentID string
	Email     string
}

// AttemptResult is the terminal state of one submission.
// Redirecting carries the deep link handed to the launcher; Failed carries Err.
type AttemptResult struct {
	Kind        AttemptKind
	State       State
	DeepLinkURL string
	Err         error
}

// Message is the display string for a failed attempt.
func (r AttemptResult) Message() string {
	return PublicMessage(r.Err)
}

// ResolutionStatus is the presentation chosen for an inbound callback.
type ResolutionStatus string

const (
	ResolutionSucceeded ResolutionStatus = "SUCCEEDED"
	ResolutionFailed    ResolutionStatus = "FAILED"
	ResolutionMalformed ResolutionStatus = "MALFORMED"
)

// Resolution is the outcome of handling one return deep link.
// Payload is only populated when the callback itself was well formed.
type Resolution struct {
	Status  ResolutionStatus
	Receipt *ReceiptView
	Payload CallbackPayload
	Err     error
}

func (r Resolution) Message() string {
	return PublicMessage(r.Err)
}

// CopyText returns the diagnostic block for a failed decrypt, or "" when there
// is nothing worth copying.
func (r Resolution) CopyText() string {
	if r.Status != ResolutionFailed {
		return ""
	}
	return r.Payload.CopyText()
}
