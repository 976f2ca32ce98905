package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
	"instore-payment-client/internal/observability"
)

// PaymentHandler exposes settings, the user directory, submissions and the
// callback receiver over HTTP.
type PaymentHandler struct {
	settings  ports.SettingsService
	directory ports.UserDirectory
	payments  ports.TransactionService
	callbacks ports.CallbackResolver
	logger    *slog.Logger
}

func NewPaymentHandler(
	settings ports.SettingsService,
	directory ports.UserDirectory,
	payments ports.TransactionService,
	callbacks ports.CallbackResolver,
	logger *slog.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		settings:  settings,
		directory: directory,
		payments:  payments,
		callbacks: callbacks,
		logger:    logger,
	}
}

// MountAPI registers the authenticated routes on r.
func (h *PaymentHandler) MountAPI(r chi.Router) {
	r.Get("/settings", h.HandleGetSettings)
	r.Put("/settings", h.HandlePutSettings)
	r.Get("/users", h.HandleListUsers)
	r.Post("/users/refresh", h.HandleRefreshUsers)
	r.Post("/payments", h.HandleCreatePayment)
	r.Post("/refunds", h.HandleCreateRefund)
}

type settingsBody struct {
	Environment string `json:"environment"`
	APIKey      string `json:"apiKey"`
	SecretKey   string `json:"secretKey"`
	MerchantID  string `json:"merchantId"`
	Configured  bool   `json:"configured"`
}

func toSettingsBody(c domain.Credentials) settingsBody {
	return settingsBody{
		Environment: string(c.Environment),
		APIKey:      c.APIKey,
		SecretKey:   c.SecretKey,
		MerchantID:  c.MerchantID,
		Configured:  c.Complete(),
	}
}

func (h *PaymentHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	creds, err := h.settings.Current(r.Context())
	if err != nil {
		respondError(w, err, h.log(r))
		return
	}
	writeJSON(w, http.StatusOK, toSettingsBody(creds), h.log(r))
}

func (h *PaymentHandler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest, h.log(r))
		return
	}

	saved, err := h.settings.Save(r.Context(), domain.SettingsInput{
		Environment: req.Environment,
		APIKey:      req.APIKey,
		SecretKey:   req.SecretKey,
		MerchantID:  req.MerchantID,
	})
	if err != nil {
		respondError(w, err, h.log(r))
		return
	}
	h.log(r).Info("merchant settings updated", "operator", SubjectFromContext(r.Context()), "merchant_id", saved.MerchantID, "environment", saved.Environment)
	writeJSON(w, http.StatusOK, toSettingsBody(saved), h.log(r))
}

type usersResponse struct {
	Users []domain.UserEntry `json:"users"`
}

func (h *PaymentHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.Load(r.Context())
	if err != nil {
		respondError(w, err, h.log(r))
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: nonNil(users)}, h.log(r))
}

func (h *PaymentHandler) HandleRefreshUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.Refresh(r.Context())
	if err != nil {
		respondError(w, err, h.log(r))
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: nonNil(users)}, h.log(r))
}

type createPaymentRequest struct {
	Amount        string `json:"amount"`
	Email         string `json:"email"`
	PaymentSource string `json:"paymentSource"`
}

type createRefundRequest struct {
	Amount    string `json:"amount"`
	PaymentID string `json:"paymentId"`
	Email     string `json:"email"`
}

type attemptResponse struct {
	State       domain.State `json:"state"`
	DeepLinkURL string       `json:"deepLinkUrl,omitempty"`
}

func (h *PaymentHandler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest, h.log(r))
		return
	}
	if req.PaymentSource == "" {
		req.PaymentSource = domain.DefaultPaymentSource
	}

	result := h.payments.SubmitPayment(r.Context(), domain.PaymentInput{
		Amount:        req.Amount,
		Email:         req.Email,
		PaymentSource: req.PaymentSource,
	})
	h.writeAttempt(w, r, result)
}

func (h *PaymentHandler) HandleCreateRefund(w http.ResponseWriter, r *http.Request) {
	var req createRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest, h.log(r))
		return
	}

	result := h.payments.SubmitRefund(r.Context(), domain.RefundInput{
		Amount:    req.Amount,
		PaymentID: req.PaymentID,
		Email:     req.Email,
	})
	h.writeAttempt(w, r, result)
}

func (h *PaymentHandler) writeAttempt(w http.ResponseWriter, r *http.Request, result domain.AttemptResult) {
	if result.Err != nil {
		respondError(w, result.Err, h.log(r))
		return
	}
	writeJSON(w, http.StatusOK, attemptResponse{State: result.State, DeepLinkURL: result.DeepLinkURL}, h.log(r))
}

type receiptBody struct {
	Amount            string `json:"amount"`
	DisplayAmount     string `json:"displayAmount"`
	MaskedPan         string `json:"maskedPan"`
	TransactionDate   string `json:"transactionDate"`
	AuthorizationCode string `json:"authorizationCode"`
}

type callbackResponse struct {
	Status   domain.ResolutionStatus `json:"status"`
	Receipt  *receiptBody            `json:"receipt,omitempty"`
	Error    string                  `json:"error,omitempty"`
	CopyText string                  `json:"copyText,omitempty"`
}

// HandleCallback receives the return deep link forwarded by the device.
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	res := h.callbacks.Resolve(r.Context(), r.URL.RequestURI())

	if res.Status == domain.ResolutionSucceeded {
		writeJSON(w, http.StatusOK, callbackResponse{
			Status: res.Status,
			Receipt: &receiptBody{
				Amount:            res.Receipt.Amount.StringFixed(2),
				DisplayAmount:     res.Receipt.DisplayAmount(),
				MaskedPan:         res.Receipt.MaskedPan,
				TransactionDate:   res.Receipt.TransactionDate,
				AuthorizationCode: res.Receipt.AuthorizationCode,
			},
		}, h.log(r))
		return
	}

	writeJSON(w, statusFor(res.Err), callbackResponse{
		Status:   res.Status,
		Error:    res.Message(),
		CopyText: res.CopyText(),
	}, h.log(r))
}

// HandleHealth reports liveness.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *PaymentHandler) log(r *http.Request) *slog.Logger {
	return observability.LoggerFromContext(r.Context(), h.logger)
}

func nonNil(users []domain.UserEntry) []domain.UserEntry {
	if users == nil {
		return []domain.UserEntry{}
	}
	return users
}
