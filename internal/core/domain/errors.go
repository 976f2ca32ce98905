package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAmountRequired        = errors.New("amount is required")
	ErrAmountNotNumeric      = errors.New("amount must be a decimal number")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrEmailRequired         = errors.New("email is required")
	ErrUnknownUser           = errors.New("email is not in the user directory")
	ErrPaymentIDRequired     = errors.New("payment id is required")
	ErrPaymentSourceRequired = errors.New("payment source is required")
	ErrCredentialsMissing    = errors.New("merchant credentials are not configured")
	ErrUnknownEnvironment    = errors.New("unknown environment")
	ErrSubmissionInProgress  = errors.New("a submission is already in progress")

	ErrCallbackMissingURI   = errors.New("callback uri is missing")
	ErrCallbackMissingData  = errors.New("callback data is missing")
	ErrCallbackMissingToken = errors.New("callback payment session token is missing")
	ErrCallbackUndecodable  = errors.New("callback parameters cannot be decoded")

	ErrStorageUnavailable = errors.New("preference storage is unavailable")
	ErrBrokerUnavailable  = errors.New("audit broker is unavailable")
)

// DefaultPartnerErrorMessage is shown when the partner rejects a request without saying why.
const DefaultPartnerErrorMessage = "An unknown error occurred."

// Kind classifies an error for presentation.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindPartnerRejection  Kind = "partner_rejection"
	KindTransport         Kind = "transport"
	KindCallbackMalformed Kind = "callback_malformed"
	KindInternal          Kind = "internal"
)

// ValidationError blocks a submission before any network call.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// PartnerRejectionError is a 2xx response whose business status is not "success".
type PartnerRejectionError struct {
	Message string
}

func NewPartnerRejection(message string) *PartnerRejectionError {
	if strings.TrimSpace(message) == "" {
		message = DefaultPartnerErrorMessage
	}
	return &PartnerRejectionError{Message: message}
}

func (e *PartnerRejectionError) Error() string { return e.Message }

// TransportError covers non-2xx statuses, unreadable bodies and network failures.
type TransportError struct {
	StatusCode int
	Detail     string
	Cause      error
}

func NewTransportError(statusCode int, detail string, cause error) *TransportError {
	return &TransportError{StatusCode: statusCode, Detail: detail, Cause: cause}
}

// NewHTTPStatusError reports a non-2xx partner response.
func NewHTTPStatusError(statusCode int) *TransportError {
	return NewTransportError(statusCode, "", nil)
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API call failed: %d", e.StatusCode)
	}
	switch {
	case e.Detail != "" && e.Cause != nil:
		return fmt.Sprintf("An error occurred: %s: %v", e.Detail, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("An error occurred: %v", e.Cause)
	case e.Detail != "":
		return "An error occurred: " + e.Detail
	}
	return DefaultPartnerErrorMessage
}

func (e *TransportError) Unwrap() error { return e.Cause }

// CallbackMalformedError means the inbound deep link cannot be resolved at all.
type CallbackMalformedError struct {
	Reason error
}

func NewCallbackMalformed(reason error) *CallbackMalformedError {
	return &CallbackMalformedError{Reason: reason}
}

func (e *CallbackMalformedError) Error() string { return "malformed callback: " + e.Reason.Error() }
func (e *CallbackMalformedError) Unwrap() error { return e.Reason }

// KindOf classifies err; unknown errors are internal.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		pe *PartnerRejectionError
		te *TransportError
		ce *CallbackMalformedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &pe):
		return KindPartnerRejection
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &ce):
		return KindCallbackMalformed
	}
	return KindInternal
}

// GenericCallbackErrorMessage is all a malformed callback ever shows.
const GenericCallbackErrorMessage = "The payment result could not be read."

// PublicMessage is the string a caller may display for err.
func PublicMessage(err error) string {
	var (
		ve *ValidationError
		pe *PartnerRejectionError
		te *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &pe):
		return pe.Message
	case errors.As(err, &te):
		return te.Error()
	case KindOf(err) == KindCallbackMalformed:
		return GenericCallbackErrorMessage
	}
	return "An unexpected error occurred."
}
