package domain

import (
	"fmt"
	"strings"
)

// Environment selects which partner deployment a call goes to.
type Environment string

const (
	EnvironmentSandbox Environment = "Sandbox"
	EnvironmentLive    Environment = "Live"
)

// ParseEnvironment accepts the stored spelling case-insensitively.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandbox":
		return EnvironmentSandbox, nil
	case "live":
		return EnvironmentLive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
}

// Credentials scope every partner call to one merchant.
// Apart from Environment the fields are opaque to this client.
type Credentials struct {
	Environment Environment
	APIKey      string
	SecretKey   string
	MerchantID  string
}

// IsZero reports whether nothing has been saved yet.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// Complete reports whether every field needed to call the partner is set.
func (c Credentials) Complete() bool {
	return c.Environment != "" && c.APIKey != "" && c.SecretKey != "" && c.MerchantID != ""
}

// Masked returns a copy safe to show back to the user.
func (c Credentials) Masked() Credentials {
	c.SecretKey = maskSecret(c.SecretKey)
	return c
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// SettingsInput is the raw content of the settings form.
type SettingsInput struct {
	Environment string
	APIKey      string
	SecretKey   string
	MerchantID  string
}
