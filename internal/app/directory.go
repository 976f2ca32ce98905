package app

import (
	"context"
	"fmt"
	"log/slog"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
	"instore-payment-client/internal/observability"
)

// directory implements ports.UserDirectory with a fail-closed refresh policy:
// a transport failure wipes the persisted list rather than leaving stale users valid.
type directory struct {
	credentials ports.CredentialStore
	gateway     ports.PaymentGateway
	store       ports.DirectoryStore
	logger      *slog.Logger
}

func NewUserDirectory(credentials ports.CredentialStore, gateway ports.PaymentGateway, store ports.DirectoryStore, logger *slog.Logger) ports.UserDirectory {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &directory{
		credentials: credentials,
		gateway:     gateway,
		store:       store,
		logger:      logger,
	}
}

// Refresh fetches the operator list and applies it:
//   - success replaces the persisted list in response order;
//   - a partner rejection leaves it untouched;
//   - a transport failure clears it.
func (d *directory) Refresh(ctx context.Context) ([]domain.UserEntry, error) {
	creds, err := d.credentials.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !creds.Complete() {
		return nil, domain.NewValidationError("credentials", domain.ErrCredentialsMissing)
	}

	users, err := d.gateway.ListUsers(ctx, creds)
	switch domain.KindOf(err) {
	case "":
		if err := d.store.Replace(ctx, users); err != nil {
			observability.CountDirectoryRefresh("store_error")
			return nil, err
		}
		observability.CountDirectoryRefresh("replaced")
		d.logger.Info("user directory refreshed", "merchant_id", creds.MerchantID, "users", len(users))
		return users, nil

	case domain.KindPartnerRejection:
		observability.CountDirectoryRefresh("rejected")
		d.logger.Warn("user directory refresh rejected", "merchant_id", creds.MerchantID, "error", err)
		return nil, err

	case domain.KindTransport:
		observability.CountDirectoryRefresh("cleared")
		d.logger.Warn("user directory refresh failed, clearing cached users", "merchant_id", creds.MerchantID, "error", err)
		if clearErr := d.store.Clear(ctx); clearErr != nil {
			return nil, fmt.Errorf("%w (clearing cached users also failed: %v)", err, clearErr)
		}
		return nil, err
	}

	observability.CountDirectoryRefresh("error")
	return nil, err
}

// Load returns the last persisted snapshot.
func (d *directory) Load(ctx context.Context) ([]domain.UserEntry, error) {
	return d.store.Load(ctx)
}
