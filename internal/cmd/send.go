package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/popeskul/insdr-dispatch/internal/app"
	"github.com/popeskul/insdr-dispatch/internal/models"
	"github.com/popeskul/insdr-dispatch/internal/recipient"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

var (
	sendFile   string
	sendManual string
	sendActor  string
	sendURL    string
	sendJSON   bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a batch read from a CSV file and/or a comma separated list",
	Example: `  dispatchctl send --actor user1 --file numbers.csv --url https://forms.example/abc
  dispatchctl send --actor user1 --manual "+33611111111,+33622222222"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recipients, err := collectRecipients(sendFile, sendManual)
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result, err := a.Service.Dispatch.SendBatch(ctx, service.BatchRequest{
				Actor:        sendActor,
				Recipients:   recipients,
				ReferenceURL: sendURL,
			})
			if err != nil {
				var validationErr *service.ValidationError
				if errors.As(err, &validationErr) && len(validationErr.Rejected) > 0 {
					printRejected(cmd.ErrOrStderr(), validationErr.Rejected)
				}
				return err
			}

			if sendJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printBatchResult(cmd.OutOrStdout(), result)
			return nil
		})
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "CSV file with a phone_number column")
	sendCmd.Flags().StringVarP(&sendManual, "manual", "m", "", "Comma separated phone numbers")
	sendCmd.Flags().StringVarP(&sendActor, "actor", "a", "", "User the batch is sent and billed as")
	sendCmd.Flags().StringVarP(&sendURL, "url", "u", "", "Reference URL substituted into the template")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "Print the result as JSON")
	_ = sendCmd.MarkFlagRequired("actor")
	rootCmd.AddCommand(sendCmd)
}

func collectRecipients(file, manual string) ([]string, error) {
	var recipients []string

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open recipients file: %w", err)
		}
		defer f.Close()

		numbers, err := recipient.ParseCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		recipients = append(recipients, numbers...)
	}

	recipients = append(recipients, recipient.ParseManual(manual)...)

	if len(recipients) == 0 {
		return nil, errors.New("no recipients: pass --file and/or --manual")
	}
	return recipients, nil
}

func printBatchResult(w io.Writer, result *models.BatchResult) {
	fmt.Fprintf(w, "Message: %s\n\n", result.Message)
	for _, o := range result.Outcomes {
		if o.Sent() {
			fmt.Fprintf(w, "  OK    %s\n", o.Recipient)
			continue
		}
		fmt.Fprintf(w, "  FAIL  %s  %s\n", o.Recipient, o.Error)
	}
	printRejected(w, result.Rejected)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  WARN  %s\n", warning)
	}
	fmt.Fprintf(w, "\nSent: %d  Failed: %d  Rejected: %d\n",
		result.SentCount(), result.FailedCount(), len(result.Rejected))
}

func printRejected(w io.Writer, rejected []string) {
	for _, number := range rejected {
		fmt.Fprintf(w, "  SKIP  %s  wrong country prefix\n", number)
	}
}
