package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"instore-payment-client/internal/core/domain"
)

// Publisher is an implementation of the AttemptPublisher port for Kafka.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewPublisher connects to the brokers and produces to topic.
func NewPublisher(ctx context.Context, bootstrapServers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, err)
	}

	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// PublishAttempt produces event asynchronously; delivery failures are logged.
func (p *Publisher) PublishAttempt(ctx context.Context, event domain.AttemptEvent) error {
	record, err := NewRecord(event)
	if err != nil {
		return err
	}

	p.wg.Add(1)
	// The record outlives the request, so delivery is not tied to ctx cancellation.
	p.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		defer p.wg.Done()
		if err != nil {
			p.logger.Error("failed to deliver attempt event", "topic", r.Topic, "event_id", event.ID, "error", err)
			return
		}
		p.logger.Debug("attempt event delivered", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
	})

	return nil
}

// Close waits for in-flight deliveries, then stops the producer.
func (p *Publisher) Close() {
	p.logger.Info("waiting for pending kafka deliveries")
	p.wg.Wait()
	p.client.Close()
	p.logger.Info("kafka publisher stopped")
}
