package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/popeskul/insdr-dispatch/internal/app"
	"github.com/popeskul/insdr-dispatch/internal/cache"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <provider-message-id>",
	Short: "Find the send log row recorded for a provider message id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			logID, err := a.Index.Lookup(ctx, args[0])
			if errors.Is(err, cache.ErrNotFound) {
				return fmt.Errorf("%s: not cached, it may have expired", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> send log %d\n", args[0], logID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
