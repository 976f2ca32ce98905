package ports

import (
	"context"
	"encoding/json"
	"time"

	"instore-payment-client/internal/core/domain"
)

// KeyValueStore is an "outgoing port" for small on-device preference namespaces.
// Replace swaps the whole namespace atomically; readers never observe a mix of
// old and new keys.
type KeyValueStore interface {
	Snapshot(ctx context.Context, namespace string) (map[string]string, error)
	Replace(ctx context.Context, namespace string, values map[string]string) error
	Clear(ctx context.Context, namespace string) error
}

// CredentialStore persists the merchant credentials.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
}

// DirectoryStore persists the last fetched user list.
type DirectoryStore interface {
	Load(ctx context.Context) ([]domain.UserEntry, error)
	Replace(ctx context.Context, users []domain.UserEntry) error
	Clear(ctx context.Context) error
}

// PaymentGateway is the outgoing port to the partner in-store API.
// Payment and refund never return an error: every failure is folded into the
// outcome. Decrypt and ListUsers return typed errors instead.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, creds domain.Credentials, req domain.PaymentRequest) domain.GatewayOutcome
	CreateRefund(ctx context.Context, creds domain.Credentials, req domain.RefundRequest) domain.GatewayOutcome
	Decrypt(ctx context.Context, creds domain.Credentials, req domain.DecryptRequest) (json.RawMessage, error)
	ListUsers(ctx context.Context, creds domain.Credentials) ([]domain.UserEntry, error)
}

// URILauncher opens a URI in a fresh top-level context. It has no result: the
// caller does not track what happens after the external app starts.
type URILauncher interface {
	Launch(uri string)
}

// Clipboard receives text the user asked to copy.
type Clipboard interface {
	Copy(text string) error
}

// AttemptPublisher records terminal attempt states for auditing.
type AttemptPublisher interface {
	PublishAttempt(ctx context.Context, event domain.AttemptEvent) error
}

// RateLimiterRepository backs the API rate limiter.
type RateLimiterRepository interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// UserDirectory is an "incoming port" over the cached list of operators.
type UserDirectory interface {
	Refresh(ctx context.Context) ([]domain.UserEntry, error)
	Load(ctx context.Context) ([]domain.UserEntry, error)
}

// TransactionService is the "incoming port" for payment and refund submissions.
type TransactionService interface {
	SubmitPayment(ctx context.Context, in domain.PaymentInput) domain.AttemptResult
	SubmitRefund(ctx context.Context, in domain.RefundInput) domain.AttemptResult
	State() domain.State
}

// CallbackResolver turns a return deep link into something to show the user.
type CallbackResolver interface {
	Resolve(ctx context.Context, rawURI string) domain.Resolution
}

// SettingsService reads and replaces the merchant credentials.
type SettingsService interface {
	Current(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, in domain.SettingsInput) (domain.Credentials, error)
}
