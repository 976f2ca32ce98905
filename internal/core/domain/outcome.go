package domain

// GatewayOutcome is the normalized result of a payment or refund call.
// Exactly one of deepLinkURL (success) or failure is set; the zero value is
// not a valid outcome and reports as a transport failure.
type GatewayOutcome struct {
	deepLinkURL string
	failure     error
}

// Success builds the outcome of an accepted request.
func Success(deepLinkURL string) GatewayOutcome {
	return GatewayOutcome{deepLinkURL: deepLinkURL}
}

// Failure builds the outcome of a rejected or failed request. err should be a
// *PartnerRejectionError or a *TransportError.
func Failure(err error) GatewayOutcome {
	if err == nil {
		err = NewTransportError(0, "", nil)
	}
	return GatewayOutcome{failure: err}
}

func (o GatewayOutcome) IsSuccess() bool {
	return o.failure == nil && o.deepLinkURL != ""
}

func (o GatewayOutcome) DeepLinkURL() string {
	return o.deepLinkURL
}

// Err returns the failure, or nil on success.
func (o GatewayOutcome) Err() error {
	if o.IsSuccess() {
		return nil
	}
	if o.failure == nil {
		return NewTransportError(0, "empty gateway outcome", nil)
	}
	return o.failure
}

// Message is the display string of a failed outcome.
func (o GatewayOutcome) Message() string {
	if err := o.Err(); err != nil {
		return PublicMessage(err)
	}
	return ""
}
