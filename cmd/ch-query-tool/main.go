package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"instore-payment-client/internal/adapters/storage/clickhouse"
	"instore-payment-client/internal/config"
	"instore-payment-client/internal/observability"
)

func main() {
	logger := observability.SetupLoggerTo(os.Stderr, "development")
	cfg, err := config.LoadOrDefault("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{Use: "ch-query-tool", SilenceUsage: true}
	rootCmd.PersistentFlags().StringVar(&cfg.ClickHouse.Addr, "addr", cfg.ClickHouse.Addr, "ClickHouse native address")
	rootCmd.PersistentFlags().StringVar(&cfg.ClickHouse.Database, "database", cfg.ClickHouse.Database, "ClickHouse database")

	open := func(ctx context.Context) (*clickhouse.AttemptStore, error) {
		conn, err := clickhouse.Connect(ctx, cfg.ClickHouse)
		if err != nil {
			return nil, err
		}
		store, err := clickhouse.NewAttemptStore(ctx, conn, logger)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return store, nil
	}

	// Command to list the latest failed attempts
	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "Latest failed and malformed attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			store, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.RecentFailures(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "OCCURRED AT\tKIND\tSTATE\tMERCHANT\tEMAIL\tAMOUNT\tMESSAGE")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.OccurredAt.Format(time.RFC3339), e.Kind, e.State, e.MerchantID, e.Email, e.Amount, e.Message)
			}
			return w.Flush()
		},
	}
	failuresCmd.Flags().Int("limit", 20, "Number of rows")

	// Command to get attempts per operator
	byUserCmd := &cobra.Command{
		Use:   "by-user",
		Short: "Attempt counts per operator and state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, _ := cmd.Flags().GetDuration("since")
			store, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountsByUser(cmd.Context(), time.Now().Add(-window))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tSTATE\tCOUNT")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%s\t%d\n", c.Email, c.State, c.Count)
			}
			return w.Flush()
		},
	}
	byUserCmd.Flags().Duration("since", 24*time.Hour, "Look-back window")

	rootCmd.AddCommand(failuresCmd, byUserCmd)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
