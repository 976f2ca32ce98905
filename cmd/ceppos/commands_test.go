package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instore-payment-client/internal/bootstrap"
	"instore-payment-client/internal/config"
	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/observability"
	"instore-payment-client/internal/partnersim"
)

type recordingClipboard struct {
	texts []string
}

func (c *recordingClipboard) Copy(text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func newTestCLI(t *testing.T, sim *partnersim.Server) (*cli, *recordingClipboard) {
	t.Helper()
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	cfg.Partner.SandboxURL = srv.URL

	ctx := context.Background()
	components, err := bootstrap.Open(ctx, cfg, observability.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(components.Close)
	_, err = components.Settings.Save(ctx, domain.SettingsInput{Environment: "sandbox", APIKey: "a", SecretKey: "s", MerchantID: "m"})
	require.NoError(t, err)

	clip := &recordingClipboard{}
	return &cli{logger: observability.DiscardLogger(), components: components, clipboard: clip}, clip
}

func TestCallbackCmd_CopiesDiagnosticsOnFailure(t *testing.T) {
	sim := partnersim.New(partnersim.Options{Users: []domain.UserEntry{}}, nil)
	sim.FailWithStatus(domain.OperationDecrypt, http.StatusInternalServerError)
	c, clip := newTestCLI(t, sim)

	cmd := c.callbackCmd()
	cmd.SetArgs([]string{partnersim.BuildCallbackURI("myapp://payment/callback", "raw+data", "session"), "--copy"})
	err := cmd.ExecuteContext(context.Background())

	assert.ErrorIs(t, err, errPaymentResultUnavailable)
	assert.Equal(t, []string{"data: raw+data\npaymentSessionToken: session"}, clip.texts)
}

func TestCallbackCmd_NoCopyWithoutFlag(t *testing.T) {
	sim := partnersim.New(partnersim.Options{Users: []domain.UserEntry{}}, nil)
	sim.FailWithStatus(domain.OperationDecrypt, http.StatusInternalServerError)
	c, clip := newTestCLI(t, sim)

	cmd := c.callbackCmd()
	cmd.SetArgs([]string{partnersim.BuildCallbackURI("myapp://payment/callback", "d", "t")})
	err := cmd.ExecuteContext(context.Background())

	assert.Error(t, err)
	assert.Empty(t, clip.texts)
}
