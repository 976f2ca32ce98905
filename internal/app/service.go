package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
	"instore-payment-client/internal/observability"
)

const tracerName = "instore-payment-client/internal/app"

// service is the implementation of the TransactionService port.
// It runs Idle -> Validating -> Submitting -> Redirecting | Failed for each
// submission and issues at most one partner call per attempt.
type service struct {
	credentials ports.CredentialStore
	directory   ports.UserDirectory
	gateway     ports.PaymentGateway
	launcher    ports.URILauncher
	publisher   ports.AttemptPublisher
	logger      *slog.Logger
	tracer      trace.Tracer

	mu    sync.Mutex
	state domain.State
}

// NewTransactionService wires the orchestrator. Credentials and the directory
// are read once at the start of every submission.
func NewTransactionService(
	credentials ports.CredentialStore,
	directory ports.UserDirectory,
	gateway ports.PaymentGateway,
	launcher ports.URILauncher,
	publisher ports.AttemptPublisher,
	logger *slog.Logger,
) ports.TransactionService {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &service{
		credentials: credentials,
		directory:   directory,
		gateway:     gateway,
		launcher:    launcher,
		publisher:   publisher,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		state:       domain.StateIdle,
	}
}

func (s *service) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *service) SubmitPayment(ctx context.Context, in domain.PaymentInput) domain.AttemptResult {
	ctx, span := s.tracer.Start(ctx, "TransactionService.SubmitPayment")
	defer span.End()

	att := attempt{kind: domain.AttemptPayment, email: in.Email, amount: in.Amount}
	result := s.run(ctx, &att, func() error {
		amount, err := validateAmount(in.Amount)
		if err != nil {
			return err
		}
		if strings.TrimSpace(in.Email) == "" {
			return domain.NewValidationError("email", domain.ErrEmailRequired)
		}
		if strings.TrimSpace(in.PaymentSource) == "" {
			return domain.NewValidationError("paymentSource", domain.ErrPaymentSourceRequired)
		}
		att.amount = amount
		return nil
	}, func(creds domain.Credentials) domain.GatewayOutcome {
		return s.gateway.CreatePayment(ctx, creds, domain.PaymentRequest{
			Amount:        att.amount,
			Email:         in.Email,
			PaymentSource: in.PaymentSource,
		})
	})

	endSpan(span, result)
	return result
}

func (s *service) SubmitRefund(ctx context.Context, in domain.RefundInput) domain.AttemptResult {
	ctx, span := s.tracer.Start(ctx, "TransactionService.SubmitRefund")
	defer span.End()

	att := attempt{kind: domain.AttemptRefund, email: in.Email, amount: in.Amount}
	result := s.run(ctx, &att, func() error {
		amount, err := validateAmount(in.Amount)
		if err != nil {
			return err
		}
		if strings.TrimSpace(in.Email) == "" {
			return domain.NewValidationError("email", domain.ErrEmailRequired)
		}
		if strings.TrimSpace(in.PaymentID) == "" {
			return domain.NewValidationError("paymentId", domain.ErrPaymentIDRequired)
		}
		att.amount = amount
		return nil
	}, func(creds domain.Credentials) domain.GatewayOutcome {
		return s.gateway.CreateRefund(ctx, creds, domain.RefundRequest{
			RefundAmount: att.amount,
			PaymentID:    strings.TrimSpace(in.PaymentID),
			Email:        in.Email,
		})
	})

	endSpan(span, result)
	return result
}

type attempt struct {
	kind   domain.AttemptKind
	email  string
	amount string
	creds  domain.Credentials
}

// run drives one submission through the state machine. validate must not
// touch the network; send is called at most once.
func (s *service) run(ctx context.Context, att *attempt, validate func() error, send func(domain.Credentials) domain.GatewayOutcome) domain.AttemptResult {
	if !s.begin() {
		return domain.AttemptResult{Kind: att.kind, State: domain.StateFailed, Err: domain.ErrSubmissionInProgress}
	}

	if err := validate(); err != nil {
		return s.fail(ctx, att, err)
	}

	creds, err := s.credentials.Load(ctx)
	if err != nil {
		return s.fail(ctx, att, err)
	}
	att.creds = creds
	if !creds.Complete() {
		return s.fail(ctx, att, domain.NewValidationError("credentials", domain.ErrCredentialsMissing))
	}

	users, err := s.directory.Load(ctx)
	if err != nil {
		return s.fail(ctx, att, err)
	}
	if _, ok := domain.FindUser(users, att.email); !ok {
		return s.fail(ctx, att, domain.NewValidationError("email", domain.ErrUnknownUser))
	}

	s.transition(domain.StateSubmitting)
	s.logger.Info("submitting to partner", "kind", att.kind, "environment", creds.Environment, "merchant_id", creds.MerchantID)

	outcome := send(creds)
	if !outcome.IsSuccess() {
		return s.fail(ctx, att, outcome.Err())
	}

	s.transition(domain.StateRedirecting)
	// Terminal: nothing is awaited once the gateway app has been asked to open.
	s.launcher.Launch(outcome.DeepLinkURL())

	s.record(ctx, att, domain.StateRedirecting, "")
	return domain.AttemptResult{Kind: att.kind, State: domain.StateRedirecting, DeepLinkURL: outcome.DeepLinkURL()}
}

// begin moves Idle (or a finished attempt) to Validating. It refuses while
// another submission is still in flight.
func (s *service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateValidating || s.state == domain.StateSubmitting {
		return false
	}
	s.state = domain.StateValidating
	return true
}

func (s *service) transition(to domain.State) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
}

// fail reports the attempt as Failed and returns the machine to Idle so the
// user can correct the input and resubmit.
func (s *service) fail(ctx context.Context, att *attempt, err error) domain.AttemptResult {
	s.transition(domain.StateIdle)

	switch domain.KindOf(err) {
	case domain.KindValidation:
		s.logger.Info("submission blocked", "kind", att.kind, "reason", err)
	case domain.KindPartnerRejection, domain.KindTransport:
		s.logger.Warn("submission failed", "kind", att.kind, "error_kind", domain.KindOf(err), "error", err)
	default:
		s.logger.Error("submission failed unexpectedly", "kind", att.kind, "error", err)
	}

	s.record(ctx, att, domain.StateFailed, domain.PublicMessage(err))
	return domain.AttemptResult{Kind: att.kind, State: domain.StateFailed, Err: err}
}

func (s *service) record(ctx context.Context, att *attempt, state domain.State, message string) {
	observability.CountAttempt(string(att.kind), string(state))

	if s.publisher == nil {
		return
	}
	event := domain.NewAttemptEvent(att.kind, string(state))
	event.Environment = att.creds.Environment
	event.MerchantID = att.creds.MerchantID
	event.Email = att.email
	event.Amount = att.amount
	event.Message = message
	if err := s.publisher.PublishAttempt(ctx, event); err != nil {
		s.logger.Warn("failed to publish attempt event", "event_id", event.ID, "error", err)
	}
}

// validateAmount returns the trimmed amount once it reads as a positive decimal.
func validateAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.NewValidationError("amount", domain.ErrAmountRequired)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return "", domain.NewValidationError("amount", domain.ErrAmountNotNumeric)
	}
	if !amount.IsPositive() {
		return "", domain.NewValidationError("amount", domain.ErrInvalidAmount)
	}
	return raw, nil
}

func endSpan(span trace.Span, result domain.AttemptResult) {
	span.SetAttributes(
		attribute.String("attempt.kind", string(result.Kind)),
		attribute.String("attempt.state", string(result.State)),
	)
	if result.Err != nil {
		span.SetAttributes(attribute.String("error.kind", string(domain.KindOf(result.Err))))
		span.SetStatus(codes.Error, domain.PublicMessage(result.Err))
	}
}
