// Package partnersim is an in-process stand-in for the partner in-store API.
// It serves the four endpoints the client uses, records every request and can
// be told to fail individual operations.
package partnersim

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/observability"
)

const DefaultDeepLinkBase = "iyzico://instore/checkout"

// RecordedRequest is one request the simulator received.
type RecordedRequest struct {
	Operation domain.Operation
	Method    string
	Header    http.Header
	Body      []byte
}

type session struct {
	PaymentID string `json:"paymentId"`
	Amount    string `json:"amount"`
	Email     string `json:"email"`
}

// Options configures a Server.
type Options struct {
	DeepLinkBase string
	// Users served by user-info/list. Nil generates three fake operators.
	Users []domain.UserEntry
}

// Server is the simulated partner.
type Server struct {
	mu           sync.Mutex
	deepLinkBase string
	users        []domain.UserEntry
	statuses     map[domain.Operation]int
	rejections   map[domain.Operation]string
	sessions     map[string]session
	lastData     string
	requests     []RecordedRequest
	logger       *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Server {
	if opts.DeepLinkBase == "" {
		opts.DeepLinkBase = DefaultDeepLinkBase
	}
	if opts.Users == nil {
		opts.Users = FakeUsers(3)
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Server{
		deepLinkBase: opts.DeepLinkBase,
		users:        opts.Users,
		statuses:     make(map[domain.Operation]int),
		rejections:   make(map[domain.Operation]string),
		sessions:     make(map[string]session),
		logger:       logger,
	}
}

// FakeUsers generates n operators; every other one may act.
func FakeUsers(n int) []domain.UserEntry {
	users := make([]domain.UserEntry, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, domain.UserEntry{Email: faker.Email(), CanPerformAction: i%2 == 0})
	}
	return users
}

// Handler returns the chi router serving the partner API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/v2/in-store", func(r chi.Router) {
		r.Post("/payment", s.handle(domain.OperationPayment, s.payment))
		r.Post("/payment/refund", s.handle(domain.OperationRefund, s.refund))
		r.Post("/crypt/decrypt", s.handle(domain.OperationDecrypt, s.decrypt))
		r.Get("/user-info/list", s.handle(domain.OperationUserList, s.userList))
	})
	return r
}

// FailWithStatus makes op answer with a bare HTTP status.
func (s *Server) FailWithStatus(op domain.Operation, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[op] = status
}

// RejectWith makes op answer 200 with a business failure. An empty message
// omits errorMessage from the response.
func (s *Server) RejectWith(op domain.Operation, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections[op] = message
}

// Reset clears failure modes for op.
func (s *Server) Reset(op domain.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, op)
	delete(s.rejections, op)
}

// SetUsers replaces the served operator list.
func (s *Server) SetUsers(users []domain.UserEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

// Requests returns the recorded requests, optionally filtered to one operation.
func (s *Server) Requests(op domain.Operation) []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []RecordedRequest
	for _, r := range s.requests {
		if op == "" || r.Operation == op {
			out = append(out, r)
		}
	}
	return out
}

// CallbackURI builds the return deep link the partner app would open after the
// most recent payment or refund. Parameters are percent-encoded twice, the way
// the partner app sends them.
func (s *Server) CallbackURI(callbackURL string) (string, bool) {
	s.mu.Lock()
	data := s.lastData
	s.mu.Unlock()
	if data == "" {
		return "", false
	}
	return BuildCallbackURI(callbackURL, data, uuid.NewString()), true
}

// BuildCallbackURI appends doubly encoded data and paymentSessionToken to callbackURL.
func BuildCallbackURI(callbackURL, data, token string) string {
	sep := "?"
	if strings.Contains(callbackURL, "?") {
		sep = "&"
	}
	return callbackURL + sep +
		"data=" + url.QueryEscape(url.QueryEscape(data)) +
		"&paymentSessionToken=" + url.QueryEscape(url.QueryEscape(token))
}

type operationHandler func(w http.ResponseWriter, body []byte)

func (s *Server) handle(op domain.Operation, next operationHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "unreadable body"})
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{Operation: op, Method: r.Method, Header: r.Header.Clone(), Body: body})
		status, failing := s.statuses[op]
		message, rejecting := s.rejections[op]
		s.mu.Unlock()

		s.logger.Debug("partner request", "operation", op, "merchant_id", r.Header.Get("x-merchant-id"))

		if r.Header.Get("x-api-key") == "" || r.Header.Get("x-secret-key") == "" || r.Header.Get("x-merchant-id") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if failing {
			w.WriteHeader(status)
			return
		}
		if rejecting {
			resp := map[string]string{"status": "failure"}
			if message != "" {
				resp["errorMessage"] = message
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
		next(w, body)
	}
}

func (s *Server) payment(w http.ResponseWriter, body []byte) {
	var req domain.PaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "invalid body"})
		return
	}
	s.issueDeepLink(w, req.Amount, req.Email)
}

func (s *Server) refund(w http.ResponseWriter, body []byte) {
	var req domain.RefundRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "invalid body"})
		return
	}
	s.issueDeepLink(w, req.RefundAmount, req.Email)
}

func (s *Server) issueDeepLink(w http.ResponseWriter, amount, email string) {
	sess := session{PaymentID: uuid.NewString(), Amount: amount, Email: email}
	raw, _ := json.Marshal(sess)
	data := base64.StdEncoding.EncodeToString(raw)

	s.mu.Lock()
	s.sessions[data] = sess
	s.lastData = data
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "success",
		"deepLinkUrl": s.deepLinkBase + "?paymentId=" + sess.PaymentID,
	})
}

func (s *Server) decrypt(w http.ResponseWriter, body []byte) {
	var req domain.DecryptRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Data == "" || req.PaymentSessionToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "invalid body"})
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[req.Data]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "unknown payment session"})
		return
	}

	var amount any = sess.Amount
	if d, err := decimal.NewFromString(sess.Amount); err == nil {
		amount = json.Number(d.String())
	}
	pan := faker.CCNumber()
	transaction := map[string]any{
		"paymentId":         sess.PaymentID,
		"amount":            amount,
		"maskedPan":         MaskPAN(pan),
		"transactionDate":   faker.Timestamp(),
		"authorizationCode": strings.ToUpper(faker.UUIDDigit()[:6]),
	}
	receipt := make(map[string]any, len(transaction))
	for k, v := range transaction {
		receipt[k] = v
	}
	transaction["receipt"] = receipt

	writeJSON(w, http.StatusOK, map[string]any{
		"inStoreCompleteOperation": map[string]any{"transaction": transaction},
	})
}

func (s *Server) userList(w http.ResponseWriter, _ []byte) {
	s.mu.Lock()
	users := append([]domain.UserEntry(nil), s.users...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "userInfoList": users})
}

// MaskPAN keeps the first six and last four digits.
func MaskPAN(pan string) string {
	if len(pan) <= 10 {
		return pan
	}
	return pan[:6] + strings.Repeat("*", len(pan)-10) + pan[len(pan)-4:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
