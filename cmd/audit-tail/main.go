// Command audit-tail prints attempt events from the audit topic.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"instore-payment-client/internal/adapters/messaging/kafka"
	"instore-payment-client/internal/bootstrap"
	"instore-payment-client/internal/config"
	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/observability"
)

func main() {
	// --- Configuration Setup ---
	logger := observability.SetupLoggerTo(os.Stderr, "development")
	cfg, err := config.LoadOrDefault("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var kafkaBrokers string
	var topic string

	rootCmd := &cobra.Command{Use: "audit-tail"}
	rootCmd.PersistentFlags().StringVar(&kafkaBrokers, "brokers", cfg.Kafka.BootstrapServers, "Kafka broker addresses")
	rootCmd.PersistentFlags().StringVar(&topic, "topic", cfg.Kafka.Topic, "Audit topic")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "View attempt events from the start of the topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			wait, _ := cmd.Flags().GetDuration("wait")
			failedOnly, _ := cmd.Flags().GetBool("failed")
			logger.Info("reading audit events", "topic", topic, "limit", limit)

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OFFSET\tTIME\tKIND\tSTATE\tMERCHANT\tEMAIL\tAMOUNT\tMESSAGE")
			fmt.Fprintln(w, "------\t----\t----\t-----\t--------\t-----\t------\t-------")

			err := kafka.Tail(ctx, bootstrap.SplitBrokers(kafkaBrokers), topic, limit,
				func(r *kgo.Record, e domain.AttemptEvent) {
					if failedOnly && !isFailure(e.State) {
						return
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						r.Offset, e.OccurredAt.Format(time.RFC3339), e.Kind, stateColor(e.State),
						e.MerchantID, e.Email, e.Amount, e.Message)
				},
				func(r *kgo.Record, err error) {
					logger.Warn("skipping undecodable record", "offset", r.Offset, "error", err)
				})
			if flushErr := w.Flush(); flushErr != nil {
				logger.Error("failed to flush output", "error", flushErr)
			}
			return err
		},
	}
	viewCmd.Flags().Int("limit", 50, "Number of events to read")
	viewCmd.Flags().Duration("wait", 10*time.Second, "How long to wait for new events")
	viewCmd.Flags().Bool("failed", false, "Only show failed and malformed attempts")

	rootCmd.AddCommand(viewCmd)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func isFailure(state string) bool {
	return state == string(domain.StateFailed) || state == string(domain.ResolutionMalformed)
}

func stateColor(state string) string {
	if isFailure(state) {
		return color.RedString(state)
	}
	return color.GreenString(state)
}
