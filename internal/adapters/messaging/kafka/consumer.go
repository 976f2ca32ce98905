package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"instore-payment-client/internal/core/domain"
)

// Tail reads up to limit audit events from the start of topic and hands each
// one to fn. Records that do not decode are passed to onBad instead.
func Tail(ctx context.Context, bootstrapServers []string, topic string, limit int, fn func(*kgo.Record, domain.AttemptEvent), onBad func(*kgo.Record, error)) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(bootstrapServers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	defer client.Close()

	seen := 0
	for seen < limit {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, errs[0].Err)
		}
		if len(fetches.Records()) == 0 {
			break
		}

		fetches.EachRecord(func(r *kgo.Record) {
			if seen >= limit {
				return
			}
			seen++
			event, err := DecodeRecord(r)
			if err != nil {
				onBad(r, err)
				return
			}
			fn(r, event)
		})
	}
	return nil
}
