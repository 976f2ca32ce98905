package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
	"instore-payment-client/internal/observability"
)

// ReceiptSource picks which object of the decrypt response fills the receipt.
type ReceiptSource string

const (
	ReceiptFromTransaction ReceiptSource = "transaction"
	ReceiptFromReceipt     ReceiptSource = "receipt"
)

// ParseReceiptSource maps the config value; anything unrecognized reads from
// the transaction object.
func ParseReceiptSource(s string) ReceiptSource {
	if strings.EqualFold(strings.TrimSpace(s), string(ReceiptFromReceipt)) {
		return ReceiptFromReceipt
	}
	return ReceiptFromTransaction
}

type resolver struct {
	credentials ports.CredentialStore
	gateway     ports.PaymentGateway
	publisher   ports.AttemptPublisher
	source      ReceiptSource
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewCallbackResolver builds the handler for return deep links.
func NewCallbackResolver(credentials ports.CredentialStore, gateway ports.PaymentGateway, publisher ports.AttemptPublisher, source ReceiptSource, logger *slog.Logger) ports.CallbackResolver {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &resolver{
		credentials: credentials,
		gateway:     gateway,
		publisher:   publisher,
		source:      source,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// Resolve parses rawURI and, when it is well formed, decrypts the result once.
func (r *resolver) Resolve(ctx context.Context, rawURI string) domain.Resolution {
	ctx, span := r.tracer.Start(ctx, "CallbackResolver.Resolve")
	defer span.End()

	res := r.resolve(ctx, rawURI)

	span.SetAttributes(attribute.String("callback.status", string(res.Status)))
	if res.Err != nil {
		span.SetStatus(codes.Error, domain.PublicMessage(res.Err))
	}
	observability.CountCallback(string(res.Status))
	r.record(ctx, res)
	return res
}

func (r *resolver) resolve(ctx context.Context, rawURI string) domain.Resolution {
	payload, err := ParseCallbackURI(rawURI)
	if err != nil {
		r.logger.Warn("malformed callback", "error", err)
		return domain.Resolution{Status: domain.ResolutionMalformed, Err: err}
	}

	creds, err := r.credentials.Load(ctx)
	if err != nil {
		return domain.Resolution{Status: domain.ResolutionFailed, Payload: payload, Err: err}
	}
	if !creds.Complete() {
		return domain.Resolution{Status: domain.ResolutionFailed, Payload: payload, Err: domain.NewValidationError("credentials", domain.ErrCredentialsMissing)}
	}

	raw, err := r.gateway.Decrypt(ctx, creds, domain.DecryptRequest{
		Data:                payload.Data,
		PaymentSessionToken: payload.PaymentSessionToken,
	})
	if err != nil {
		r.logger.Warn("decrypt failed", "merchant_id", creds.MerchantID, "error", err)
		return domain.Resolution{Status: domain.ResolutionFailed, Payload: payload, Err: err}
	}

	receipt, err := extractReceipt(raw, r.source)
	if err != nil {
		r.logger.Warn("decrypt response has no transaction", "merchant_id", creds.MerchantID, "error", err)
		return domain.Resolution{Status: domain.ResolutionFailed, Payload: payload, Err: err}
	}

	r.logger.Info("payment result received", "merchant_id", creds.MerchantID, "authorization_code", receipt.AuthorizationCode)
	return domain.Resolution{Status: domain.ResolutionSucceeded, Receipt: &receipt, Payload: payload}
}

func (r *resolver) record(ctx context.Context, res domain.Resolution) {
	if r.publisher == nil {
		return
	}
	event := domain.NewAttemptEvent(domain.AttemptCallback, string(res.Status))
	if res.Receipt != nil {
		event.Amount = res.Receipt.Amount.String()
	}
	event.Message = res.Message()
	if err := r.publisher.PublishAttempt(ctx, event); err != nil {
		r.logger.Warn("failed to publish callback event", "event_id", event.ID, "error", err)
	}
}

// ParseCallbackURI extracts data and paymentSessionToken from a return deep
// link. Both values arrive percent-encoded twice: the query is decoded, then
// each value is decoded again. Decoding turns '+' into ' ', which is undone
// for data since it is base64 text. Empty values count as missing.
func ParseCallbackURI(rawURI string) (domain.CallbackPayload, error) {
	if strings.TrimSpace(rawURI) == "" {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackMissingURI)
	}

	u, err := url.Parse(rawURI)
	if err != nil {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackUndecodable)
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackUndecodable)
	}

	data := query.Get("data")
	if data == "" {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackMissingData)
	}
	token := query.Get("paymentSessionToken")
	if token == "" {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackMissingToken)
	}

	data, err = url.QueryUnescape(data)
	if err != nil {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackUndecodable)
	}
	token, err = url.QueryUnescape(token)
	if err != nil {
		return domain.CallbackPayload{}, domain.NewCallbackMalformed(domain.ErrCallbackUndecodable)
	}

	return domain.CallbackPayload{
		Data:                strings.ReplaceAll(data, " ", "+"),
		PaymentSessionToken: token,
	}, nil
}

type receiptFields struct {
	Amount            decimal.NullDecimal `json:"amount"`
	MaskedPan         *string             `json:"maskedPan"`
	TransactionDate   *string             `json:"transactionDate"`
	AuthorizationCode *string             `json:"authorizationCode"`
}

type decryptedTransaction struct {
	receiptFields
	Receipt *receiptFields `json:"receipt"`
}

type decryptResponse struct {
	InStoreCompleteOperation *struct {
		Transaction *decryptedTransaction `json:"transaction"`
	} `json:"inStoreCompleteOperation"`
}

// extractReceipt reads inStoreCompleteOperation.transaction. Fields come from
// the object named by source; a field absent there is taken from the other one.
func extractReceipt(raw json.RawMessage, source ReceiptSource) (domain.ReceiptView, error) {
	var resp decryptResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.ReceiptView{}, domain.NewTransportError(0, "malformed decrypt response", err)
	}
	if resp.InStoreCompleteOperation == nil || resp.InStoreCompleteOperation.Transaction == nil {
		return domain.ReceiptView{}, domain.NewTransportError(0, "malformed decrypt response: missing transaction", nil)
	}

	tx := resp.InStoreCompleteOperation.Transaction
	primary, secondary := tx.receiptFields, receiptFields{}
	if tx.Receipt != nil {
		secondary = *tx.Receipt
	}
	if source == ReceiptFromReceipt {
		primary, secondary = secondary, primary
	}

	view := domain.ReceiptView{
		MaskedPan:         firstString(primary.MaskedPan, secondary.MaskedPan),
		TransactionDate:   firstString(primary.TransactionDate, secondary.TransactionDate),
		AuthorizationCode: firstString(primary.AuthorizationCode, secondary.AuthorizationCode),
	}
	switch {
	case primary.Amount.Valid:
		view.Amount = primary.Amount.Decimal
	case secondary.Amount.Valid:
		view.Amount = secondary.Amount.Decimal
	default:
		return domain.ReceiptView{}, domain.NewTransportError(0, "malformed decrypt response: missing amount", nil)
	}
	if view.AuthorizationCode == "" {
		return domain.ReceiptView{}, domain.NewTransportError(0, "malformed decrypt response: missing authorizationCode", nil)
	}
	return view, nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}
