// Package prefs maps credentials and the user directory onto flat
// preference namespaces. The key layout matches what earlier releases of the
// client wrote, so existing devices keep their settings.
package prefs

import (
	"context"
	"fmt"
	"strconv"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
)

const (
	CredentialsNamespace = "credentials"
	UsersNamespace       = "users"

	keyEnv        = "ENV"
	keyAPIKey     = "API_KEY"
	keySecretKey  = "SECRET_KEY"
	keyMerchantID = "MERCHANT_ID"

	keyUserCount = "userCount"
)

func userEmailKey(i int) string  { return "user_email_" + strconv.Itoa(i) }
func userActionKey(i int) string { return "user_action_" + strconv.Itoa(i) }

// CredentialStore implements ports.CredentialStore.
type CredentialStore struct {
	kv ports.KeyValueStore
}

func NewCredentialStore(kv ports.KeyValueStore) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Load returns the saved credentials; missing keys read as empty strings.
// A stored environment outside Sandbox/Live is kept verbatim so the gateway
// reports it instead of silently picking a host.
func (s *CredentialStore) Load(ctx context.Context) (domain.Credentials, error) {
	values, err := s.kv.Snapshot(ctx, CredentialsNamespace)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	env := domain.Environment(values[keyEnv])
	if parsed, err := domain.ParseEnvironment(values[keyEnv]); err == nil {
		env = parsed
	}
	return domain.Credentials{
		Environment: env,
		APIKey:      values[keyAPIKey],
		SecretKey:   values[keySecretKey],
		MerchantID:  values[keyMerchantID],
	}, nil
}

// Save overwrites all four fields at once.
func (s *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	err := s.kv.Replace(ctx, CredentialsNamespace, map[string]string{
		keyEnv:        string(creds.Environment),
		keyAPIKey:     creds.APIKey,
		keySecretKey:  creds.SecretKey,
		keyMerchantID: creds.MerchantID,
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// DirectoryStore implements ports.DirectoryStore.
type DirectoryStore struct {
	kv ports.KeyValueStore
}

func NewDirectoryStore(kv ports.KeyValueStore) *DirectoryStore {
	return &DirectoryStore{kv: kv}
}

// Load decodes the persisted list in stored order. Entries with a missing
// e-mail are skipped; an unreadable flag reads as false.
func (s *DirectoryStore) Load(ctx context.Context) ([]domain.UserEntry, error) {
	values, err := s.kv.Snapshot(ctx, UsersNamespace)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	// Each entry takes at least one key, so a count above len(values) is corrupt.
	count, _ := strconv.Atoi(values[keyUserCount])
	count = min(max(count, 0), len(values))
	users := make([]domain.UserEntry, 0, count)
	for i := 0; i < count; i++ {
		email := values[userEmailKey(i)]
		if email == "" {
			continue
		}
		action, _ := strconv.ParseBool(values[userActionKey(i)])
		users = append(users, domain.UserEntry{Email: email, CanPerformAction: action})
	}
	return users, nil
}

// Replace writes the whole list in one namespace swap.
func (s *DirectoryStore) Replace(ctx context.Context, users []domain.UserEntry) error {
	values := make(map[string]string, 2*len(users)+1)
	values[keyUserCount] = strconv.Itoa(len(users))
	for i, u := range users {
		values[userEmailKey(i)] = u.Email
		values[userActionKey(i)] = strconv.FormatBool(u.CanPerformAction)
	}
	if err := s.kv.Replace(ctx, UsersNamespace, values); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func (s *DirectoryStore) Clear(ctx context.Context) error {
	if err := s.kv.Clear(ctx, UsersNamespace); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}
