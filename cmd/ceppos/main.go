// Command ceppos is the operator console for in-store payments: it stores
// merchant settings, keeps the operator list current, starts payments and
// refunds in the gateway app, and reads back the result deep link.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"instore-payment-client/internal/adapters/desktop"
	"instore-payment-client/internal/bootstrap"
	"instore-payment-client/internal/config"
	"instore-payment-client/internal/core/ports"
	"instore-payment-client/internal/observability"
)

type cli struct {
	configPath string
	verbose    bool

	logger     *slog.Logger
	components *bootstrap.Components
	clipboard  ports.Clipboard
}

func main() {
	c := &cli{clipboard: desktop.NewClipboard()}

	rootCmd := &cobra.Command{
		Use:           "ceppos",
		Short:         "In-store payment console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.components != nil {
				c.components.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(
		c.settingsCmd(),
		c.usersCmd(),
		c.payCmd(),
		c.refundCmd(),
		c.callbackCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c.logger = observability.DiscardLogger()
	if c.verbose {
		c.logger = observability.SetupLoggerTo(os.Stderr, "development")
	}

	components, err := bootstrap.Open(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	c.components = components
	return nil
}
