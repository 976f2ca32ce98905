package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instore-payment-client/internal/adapters/gateway"
	"instore-payment-client/internal/adapters/storage/memory"
	"instore-payment-client/internal/app"
	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/observability"
	"instore-payment-client/internal/partnersim"
	"instore-payment-client/internal/prefs"
)

const testSecret = "test-secret"

type recordingLauncher struct {
	mu   sync.Mutex
	uris []string
}

func (l *recordingLauncher) Launch(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
}

func (l *recordingLauncher) launched() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.uris...)
}

type apiFixture struct {
	sim      *partnersim.Server
	launcher *recordingLauncher
	router   http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := observability.DiscardLogger()

	sim := partnersim.New(partnersim.Options{
		Users: []domain.UserEntry{{Email: "ops@shop.test", CanPerformAction: true}},
	}, nil)
	partner := httptest.NewServer(sim.Handler())
	t.Cleanup(partner.Close)

	kv := memory.NewStore()
	creds := prefs.NewCredentialStore(kv)
	users := prefs.NewDirectoryStore(kv)
	gw := gateway.NewClient(gateway.Options{SandboxURL: partner.URL, LiveURL: partner.URL, Timeout: 2 * time.Second}, nil)
	launcher := &recordingLauncher{}

	directory := app.NewUserDirectory(creds, gw, users, logger)
	handler := NewPaymentHandler(
		app.NewSettings(creds),
		directory,
		app.NewTransactionService(creds, directory, gw, launcher, nil, logger),
		app.NewCallbackResolver(creds, gw, nil, app.ReceiptFromTransaction, logger),
		logger,
	)
	auth := NewAuthHandler(logger, testSecret, time.Hour, "operator", "pw")

	r := chi.NewRouter()
	r.Get("/health", HandleHealth)
	r.Post("/auth/login", auth.HandleLogin)
	r.Get("/payment/callback", handler.HandleCallback)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JWTMiddleware([]byte(testSecret), logger))
		handler.MountAPI(r)
	})

	return &apiFixture{sim: sim, launcher: launcher, router: r}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "operator", Password: "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// configure stores sandbox credentials and pulls the operator list.
func (f *apiFixture) configure(t *testing.T, token string) {
	t.Helper()
	rec := f.do(t, http.MethodPut, "/api/v1/settings", token, map[string]string{
		"environment": "sandbox", "apiKey": "api", "secretKey": "secret-key", "merchantId": "m-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, "/api/v1/users/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestAPI_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_WrongPasswordIsRejected(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "operator", Password: "nope"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSettings_UnconfiguredThenSavedMasked(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	before := decodeBody[settingsBody](t, f.do(t, http.MethodGet, "/api/v1/settings", token, nil))
	assert.False(t, before.Configured)

	f.configure(t, token)

	after := decodeBody[settingsBody](t, f.do(t, http.MethodGet, "/api/v1/settings", token, nil))
	assert.True(t, after.Configured)
	assert.Equal(t, "sandbox", after.Environment)
	assert.Equal(t, "m-1", after.MerchantID)
	assert.NotContains(t, after.SecretKey, "secret")
}

func TestSettings_IncompleteInputIsBadRequest(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPut, "/api/v1/settings", token, map[string]string{"environment": "sandbox", "apiKey": "api"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.KindValidation), decodeBody[ErrorResponse](t, rec).Kind)
}

func TestUsers_RefreshPersistsList(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)

	got := decodeBody[usersResponse](t, f.do(t, http.MethodGet, "/api/v1/users", token, nil))

	assert.Equal(t, []domain.UserEntry{{Email: "ops@shop.test", CanPerformAction: true}}, got.Users)
}

func TestPayments_RedirectsAndLaunchesDeepLink(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)

	rec := f.do(t, http.MethodPost, "/api/v1/payments", token, map[string]string{"amount": "10.50", "email": "ops@shop.test"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[attemptResponse](t, rec)
	assert.Equal(t, domain.StateRedirecting, resp.State)
	assert.True(t, strings.HasPrefix(resp.DeepLinkURL, partnersim.DefaultDeepLinkBase))
	assert.Equal(t, []string{resp.DeepLinkURL}, f.launcher.launched())

	reqs := f.sim.Requests(domain.OperationPayment)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"amount":"10.50","email":"ops@shop.test","paymentSource":"iyzico"}`, string(reqs[0].Body))
}

func TestPayments_InvalidAmountNeverReachesPartner(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)

	rec := f.do(t, http.MethodPost, "/api/v1/refunds", token, map[string]string{"amount": "0", "paymentId": "12345", "email": "ops@shop.test"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Error, "must be positive")
	assert.Empty(t, f.sim.Requests(domain.OperationRefund))
	assert.Empty(t, f.launcher.launched())
}

func TestPayments_PartnerRejectionIsUnprocessable(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)
	f.sim.RejectWith(domain.OperationPayment, "Insufficient limit")

	rec := f.do(t, http.MethodPost, "/api/v1/payments", token, map[string]string{"amount": "5", "email": "ops@shop.test"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Insufficient limit", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCallback_SucceededShowsReceipt(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/payments", token, map[string]string{"amount": "10.50", "email": "ops@shop.test"}).Code)

	uri, ok := f.sim.CallbackURI("/payment/callback")
	require.True(t, ok)

	rec := f.do(t, http.MethodGet, uri, "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[callbackResponse](t, rec)
	assert.Equal(t, domain.ResolutionSucceeded, resp.Status)
	require.NotNil(t, resp.Receipt)
	assert.Equal(t, "10.50", resp.Receipt.Amount)
	assert.Equal(t, "10.50 TL", resp.Receipt.DisplayAmount)
	assert.NotEmpty(t, resp.Receipt.MaskedPan)
	assert.Len(t, resp.Receipt.AuthorizationCode, 6)
}

func TestCallback_MissingTokenShowsGenericMessage(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)

	rec := f.do(t, http.MethodGet, "/payment/callback?data=abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[callbackResponse](t, rec)
	assert.Equal(t, domain.ResolutionMalformed, resp.Status)
	assert.Equal(t, domain.GenericCallbackErrorMessage, resp.Error)
	assert.Empty(t, resp.CopyText)
	assert.Empty(t, f.sim.Requests(domain.OperationDecrypt))
}

func TestCallback_DecryptFailureOffersCopyText(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	f.configure(t, token)
	f.sim.FailWithStatus(domain.OperationDecrypt, http.StatusInternalServerError)

	rec := f.do(t, http.MethodGet, partnersim.BuildCallbackURI("/payment/callback", "raw+data", "session"), "", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeBody[callbackResponse](t, rec)
	assert.Equal(t, domain.ResolutionFailed, resp.Status)
	assert.Equal(t, "API call failed: 500", resp.Error)
	assert.Equal(t, "data: raw+data\npaymentSessionToken: session", resp.CopyText)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
