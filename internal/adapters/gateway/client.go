// Package gateway talks to the partner in-store API.
// Every call carries the merchant credential headers; payment and refund calls
// also carry the callback deep link and a fresh nonce. Partner responses are
// normalized into domain outcomes and typed errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"instore-payment-client/internal/config"
	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/observability"
)

const (
	HeaderAPIKey      = "x-api-key"
	HeaderSecretKey   = "x-secret-key"
	HeaderMerchantID  = "x-merchant-id"
	HeaderCallbackURL = "x-callback-url"
	HeaderNonce       = "x-iyzi-rnd"

	apiPrefix     = "/v2/in-store/"
	statusSuccess = "success"
)

var operationPaths = map[domain.Operation]string{
	domain.OperationPayment:  "payment",
	domain.OperationRefund:   "payment/refund",
	domain.OperationDecrypt:  "crypt/decrypt",
	domain.OperationUserList: "user-info/list",
}

// Options configures a Client. Zero values fall back to the production hosts.
type Options struct {
	SandboxURL  string
	LiveURL     string
	CallbackURL string
	Timeout     time.Duration
	Transport   http.RoundTripper
}

// Client implements ports.PaymentGateway over resty.
type Client struct {
	http        *resty.Client
	baseURLs    map[domain.Environment]string
	callbackURL string
	nonce       *nonceSource
	logger      *slog.Logger
}

// NewClient creates a partner API client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	defaults := config.Default().Partner
	if opts.SandboxURL == "" {
		opts.SandboxURL = defaults.SandboxURL
	}
	if opts.LiveURL == "" {
		opts.LiveURL = defaults.LiveURL
	}
	if opts.CallbackURL == "" {
		opts.CallbackURL = defaults.CallbackURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}

	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: observability.NewTracingTransport(opts.Transport),
	}
	rc := resty.NewWithClient(httpClient).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger: logger})

	return &Client{
		http: rc,
		baseURLs: map[domain.Environment]string{
			domain.EnvironmentSandbox: strings.TrimRight(opts.SandboxURL, "/"),
			domain.EnvironmentLive:    strings.TrimRight(opts.LiveURL, "/"),
		},
		callbackURL: opts.CallbackURL,
		nonce:       newNonceSource(time.Now),
		logger:      logger,
	}
}

// NewClientFromConfig builds a Client from the partner section of the config.
func NewClientFromConfig(cfg config.PartnerConfig, logger *slog.Logger) *Client {
	return NewClient(Options{
		SandboxURL:  cfg.SandboxURL,
		LiveURL:     cfg.LiveURL,
		CallbackURL: cfg.CallbackURL,
		Timeout:     cfg.Timeout,
	}, logger)
}

// BaseURL returns the host used for env.
func (c *Client) BaseURL(env domain.Environment) (string, error) {
	u, ok := c.baseURLs[env]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownEnvironment, env)
	}
	return u, nil
}

// businessResponse is the envelope shared by payment, refund and user list responses.
type businessResponse struct {
	Status       string             `json:"status"`
	DeepLinkURL  string             `json:"deepLinkUrl"`
	ErrorMessage string             `json:"errorMessage"`
	UserInfoList []domain.UserEntry `json:"userInfoList"`
}

// CreatePayment starts a payment and returns the gateway deep link on success.
func (c *Client) CreatePayment(ctx context.Context, creds domain.Credentials, req domain.PaymentRequest) domain.GatewayOutcome {
	return c.redirectCall(ctx, domain.OperationPayment, creds, req)
}

// CreateRefund starts a refund and returns the gateway deep link on success.
func (c *Client) CreateRefund(ctx context.Context, creds domain.Credentials, req domain.RefundRequest) domain.GatewayOutcome {
	return c.redirectCall(ctx, domain.OperationRefund, creds, req)
}

func (c *Client) redirectCall(ctx context.Context, op domain.Operation, creds domain.Credentials, body any) domain.GatewayOutcome {
	raw, err := c.send(ctx, op, creds, body)
	if err != nil {
		return domain.Failure(err)
	}

	var resp businessResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Failure(domain.NewTransportError(0, "malformed response", err))
	}
	if resp.Status != statusSuccess {
		c.logger.Info("partner rejected request", "operation", op, "merchant_id", creds.MerchantID, "status", resp.Status)
		return domain.Failure(domain.NewPartnerRejection(resp.ErrorMessage))
	}
	if resp.DeepLinkURL == "" {
		return domain.Failure(domain.NewTransportError(0, "malformed response: missing deepLinkUrl", nil))
	}
	return domain.Success(resp.DeepLinkURL)
}

// Decrypt exchanges the callback payload for the transaction result.
// Any 2xx JSON body is the result; there is no status gate.
func (c *Client) Decrypt(ctx context.Context, creds domain.Credentials, req domain.DecryptRequest) (json.RawMessage, error) {
	raw, err := c.send(ctx, domain.OperationDecrypt, creds, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, domain.NewTransportError(0, "malformed response", nil)
	}
	return json.RawMessage(raw), nil
}

// ListUsers fetches the operators registered for the merchant.
func (c *Client) ListUsers(ctx context.Context, creds domain.Credentials) ([]domain.UserEntry, error) {
	raw, err := c.send(ctx, domain.OperationUserList, creds, nil)
	if err != nil {
		return nil, err
	}

	var resp businessResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.NewTransportError(0, "malformed response", err)
	}
	if resp.Status != statusSuccess {
		return nil, domain.NewPartnerRejection(resp.ErrorMessage)
	}
	return domain.NormalizeUsers(resp.UserInfoList), nil
}

// send performs one HTTP exchange and returns the body of a 2xx response.
// Non-2xx statuses, empty bodies and network failures become *domain.TransportError.
func (c *Client) send(ctx context.Context, op domain.Operation, creds domain.Credentials, body any) ([]byte, error) {
	start := time.Now()
	raw, err := c.do(ctx, op, creds, body)

	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		c.logger.Warn("partner call failed", "operation", op, "environment", creds.Environment, "merchant_id", creds.MerchantID, "error", err)
	}
	observability.ObserveGatewayCall(string(op), outcome, time.Since(start))
	return raw, err
}

func (c *Client) do(ctx context.Context, op domain.Operation, creds domain.Credentials, body any) ([]byte, error) {
	base, err := c.BaseURL(creds.Environment)
	if err != nil {
		return nil, domain.NewTransportError(0, "", err)
	}
	url := base + apiPrefix + operationPaths[op]

	req := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderAPIKey, creds.APIKey).
		SetHeader(HeaderSecretKey, creds.SecretKey).
		SetHeader(HeaderMerchantID, creds.MerchantID)

	method := http.MethodPost
	switch op {
	case domain.OperationPayment, domain.OperationRefund:
		req.SetHeader(HeaderCallbackURL, c.callbackURL).
			SetHeader(HeaderNonce, c.nonce.Next())
	case domain.OperationUserList:
		method = http.MethodGet
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, domain.NewTransportError(0, "", err)
	}
	if !resp.IsSuccess() {
		return nil, domain.NewHTTPStatusError(resp.StatusCode())
	}

	raw := resp.Body()
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewTransportError(0, "empty response", nil)
	}
	return raw, nil
}

// restyLogger routes resty's own diagnostics into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
