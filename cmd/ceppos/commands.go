package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"instore-payment-client/internal/adapters/desktop"
	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/core/ports"
)

var errPaymentResultUnavailable = errors.New("payment result unavailable")

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan)
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Show or change merchant credentials"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored credentials with the secret masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := c.components.Settings.Current(cmd.Context())
			if err != nil {
				return err
			}
			printCredentials(creds)
			return nil
		},
	}

	var in domain.SettingsInput
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			saved, err := c.components.Settings.Save(cmd.Context(), in)
			if err != nil {
				return err
			}
			okColor.Println("Settings saved")
			printCredentials(saved)
			return nil
		},
	}
	setCmd.Flags().StringVar(&in.Environment, "env", "sandbox", "Partner environment: sandbox or live")
	setCmd.Flags().StringVar(&in.APIKey, "api-key", "", "Partner API key")
	setCmd.Flags().StringVar(&in.SecretKey, "secret-key", "", "Partner secret key")
	setCmd.Flags().StringVar(&in.MerchantID, "merchant-id", "", "Merchant identifier")

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Inspect the operator directory"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the last fetched operator list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := c.components.Directory.Load(cmd.Context())
			if err != nil {
				return err
			}
			printUsers(users)
			return nil
		},
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the operator list from the partner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := c.components.Directory.Refresh(cmd.Context())
			if err != nil {
				return errors.New(domain.PublicMessage(err))
			}
			printUsers(users)
			return nil
		},
	}

	cmd.AddCommand(listCmd, refreshCmd)
	return cmd
}

func (c *cli) payCmd() *cobra.Command {
	var in domain.PaymentInput
	var noOpen bool
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Start a payment in the gateway app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := c.transactions(noOpen).SubmitPayment(cmd.Context(), in)
			return reportAttempt(result)
		},
	}
	cmd.Flags().StringVar(&in.Amount, "amount", "", "Amount to charge, e.g. 100.50")
	cmd.Flags().StringVar(&in.Email, "email", "", "Operator email")
	cmd.Flags().StringVar(&in.PaymentSource, "source", domain.DefaultPaymentSource, "Payment source")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the deep link instead of opening it")
	return cmd
}

func (c *cli) refundCmd() *cobra.Command {
	var in domain.RefundInput
	var noOpen bool
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Start a refund in the gateway app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := c.transactions(noOpen).SubmitRefund(cmd.Context(), in)
			return reportAttempt(result)
		},
	}
	cmd.Flags().StringVar(&in.Amount, "amount", "", "Amount to refund")
	cmd.Flags().StringVar(&in.PaymentID, "payment-id", "", "Identifier of the original payment")
	cmd.Flags().StringVar(&in.Email, "email", "", "Operator email")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the deep link instead of opening it")
	return cmd
}

func (c *cli) callbackCmd() *cobra.Command {
	var copyOnFailure bool
	cmd := &cobra.Command{
		Use:   "callback <uri>",
		Short: "Read the payment result from a return deep link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := c.components.Callbacks().Resolve(cmd.Context(), args[0])
			switch res.Status {
			case domain.ResolutionSucceeded:
				okColor.Println("Payment successful")
				printReceipt(*res.Receipt)
				return nil
			case domain.ResolutionFailed:
				failColor.Println(res.Message())
				fmt.Println(res.CopyText())
				if copyOnFailure {
					if err := c.clipboard.Copy(res.CopyText()); err != nil {
						return err
					}
					labelColor.Println("Copied to clipboard")
				}
				return errPaymentResultUnavailable
			}
			failColor.Println(res.Message())
			return errPaymentResultUnavailable
		},
	}
	cmd.Flags().BoolVar(&copyOnFailure, "copy", false, "Copy the diagnostic block to the clipboard on failure")
	return cmd
}

func (c *cli) transactions(noOpen bool) ports.TransactionService {
	var launcher ports.URILauncher = desktop.NewLauncher(c.logger)
	if noOpen {
		launcher = desktop.NewLoggingLauncher(c.logger)
	}
	return c.components.Transactions(launcher)
}

func reportAttempt(result domain.AttemptResult) error {
	if result.State != domain.StateRedirecting {
		failColor.Println(result.Message())
		return fmt.Errorf("%s not submitted", result.Kind)
	}
	okColor.Printf("%s sent to the gateway app\n", result.Kind)
	fmt.Println(result.DeepLinkURL)
	return nil
}

func printCredentials(creds domain.Credentials) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("ENVIRONMENT"), creds.Environment)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("API KEY"), creds.APIKey)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("SECRET KEY"), creds.SecretKey)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("MERCHANT ID"), creds.MerchantID)
	_ = w.Flush()
	if !creds.Complete() {
		failColor.Println("Settings are incomplete")
	}
}

func printUsers(users []domain.UserEntry) {
	if len(users) == 0 {
		fmt.Println("No operators.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tCAN PERFORM ACTION")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%t\n", u.Email, u.CanPerformAction)
	}
	_ = w.Flush()
}

func printReceipt(r domain.ReceiptView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("Amount"), r.DisplayAmount())
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("Card"), r.MaskedPan)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("Date"), r.TransactionDate)
	fmt.Fprintf(w, "%s\t%s\n", labelColor.Sprint("Auth code"), r.AuthorizationCode)
	_ = w.Flush()
}
