package partnersim

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"instore-payment-client/internal/core/domain"
)

func TestMaskPAN(t *testing.T) {
	assert.Equal(t, "411111******1111", MaskPAN("4111111111111111"))
	assert.Equal(t, "1234", MaskPAN("1234"))
}

func TestBuildCallbackURI_EncodesTwice(t *testing.T) {
	uri := BuildCallbackURI("myapp://payment/callback", "a+b/c=", "tok")

	assert.Equal(t, "myapp://payment/callback?data=a%252Bb%252Fc%253D&paymentSessionToken=tok", uri)
}

func TestHandler_RequiresCredentialHeaders(t *testing.T) {
	sim := New(Options{Users: []domain.UserEntry{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v2/in-store/payment", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	sim.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, sim.Requests(domain.OperationPayment), 1)
}

func TestCallbackURI_NeedsAPayment(t *testing.T) {
	sim := New(Options{Users: []domain.UserEntry{}}, nil)

	_, ok := sim.CallbackURI("myapp://payment/callback")

	assert.False(t, ok)
}
