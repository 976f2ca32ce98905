package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"instore-payment-client/internal/core/domain"
)

// attemptRecord is the JSON value written to the audit topic.
type attemptRecord struct {
	ID          string `json:"event_id"`
	Kind        string `json:"kind"`
	State       string `json:"state"`
	Environment string `json:"environment,omitempty"`
	MerchantID  string `json:"merchant_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Message     string `json:"message,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

// NewRecord encodes event as a Kafka record keyed by merchant, so one
// merchant's attempts stay ordered within a partition.
func NewRecord(event domain.AttemptEvent) (*kgo.Record, error) {
	payload, err := json.Marshal(attemptRecord{
		ID:          event.ID.String(),
		Kind:        string(event.Kind),
		State:       event.State,
		Environment: string(event.Environment),
		MerchantID:  event.MerchantID,
		Email:       event.Email,
		Amount:      event.Amount,
		Message:     event.Message,
		OccurredAt:  event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attempt event: %w", err)
	}

	key := event.MerchantID
	if key == "" {
		key = event.ID.String()
	}
	return &kgo.Record{
		Key:   []byte(key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "state", Value: []byte(event.State)},
		},
	}, nil
}

// DecodeRecord reads an audit record back into an event.
func DecodeRecord(r *kgo.Record) (domain.AttemptEvent, error) {
	var rec attemptRecord
	if err := json.Unmarshal(r.Value, &rec); err != nil {
		return domain.AttemptEvent{}, fmt.Errorf("failed to unmarshal attempt event: %w", err)
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return domain.AttemptEvent{}, fmt.Errorf("invalid event id %q: %w", rec.ID, err)
	}
	occurred, err := time.Parse(time.RFC3339Nano, rec.OccurredAt)
	if err != nil {
		return domain.AttemptEvent{}, fmt.Errorf("invalid occurred_at %q: %w", rec.OccurredAt, err)
	}
	return domain.AttemptEvent{
		ID:          id,
		Kind:        domain.AttemptKind(rec.Kind),
		State:       rec.State,
		Environment: domain.Environment(rec.Environment),
		MerchantID:  rec.MerchantID,
		Email:       rec.Email,
		Amount:      rec.Amount,
		Message:     rec.Message,
		OccurredAt:  occurred,
	}, nil
}
