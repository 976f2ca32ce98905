package app

import (
	"context"
	"strings"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
)

// Settings validates and stores merchant credentials.
type Settings struct {
	store ports.CredentialStore
}

func NewSettings(store ports.CredentialStore) *Settings {
	return &Settings{store: store}
}

// Current returns the stored credentials with the secret masked.
func (s *Settings) Current(ctx context.Context) (domain.Credentials, error) {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	return creds.Masked(), nil
}

// Save replaces all four fields. Every field is required.
func (s *Settings) Save(ctx context.Context, in domain.SettingsInput) (domain.Credentials, error) {
	env, err := domain.ParseEnvironment(in.Environment)
	if err != nil {
		return domain.Credentials{}, domain.NewValidationError("environment", err)
	}
	creds := domain.Credentials{
		Environment: env,
		APIKey:      strings.TrimSpace(in.APIKey),
		SecretKey:   strings.TrimSpace(in.SecretKey),
		MerchantID:  strings.TrimSpace(in.MerchantID),
	}
	if !creds.Complete() {
		return domain.Credentials{}, domain.NewValidationError("credentials", domain.ErrCredentialsMissing)
	}
	if err := s.store.Save(ctx, creds); err != nil {
		return domain.Credentials{}, err
	}
	return creds.Masked(), nil
}
