package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jgivc/vsxsync/internal/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the HTTP surface over the reconciliation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.New(rootOpts.ConfigPath)
			a.Start()

			c := make(chan os.Signal, 1)
			defer close(c)

			signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			<-c

			fmt.Fprintln(cmd.OutOrStdout(), "Received termination signal. Shutting down...")
			a.Stop()

			return nil
		},
	}
}
