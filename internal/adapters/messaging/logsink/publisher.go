// Package logsink is the AttemptPublisher used when no broker is configured:
// events go to the structured log and nowhere else.
package logsink

import (
	"context"
	"log/slog"

	"instore-payment-client/internal/core/domain"
)

type Publisher struct {
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishAttempt(ctx context.Context, event domain.AttemptEvent) error {
	p.logger.InfoContext(ctx, "attempt recorded",
		"event_id", event.ID,
		"kind", event.Kind,
		"state", event.State,
		"environment", event.Environment,
		"merchant_id", event.MerchantID,
		"amount", event.Amount,
		"message", event.Message,
	)
	return nil
}

func (p *Publisher) Close() {}
