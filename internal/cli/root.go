package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgivc/vsxsync/internal/config"
)

// RootOptions holds global flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the vsxsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vsxsync",
		Short: "Reconcile editor extensions against Open VSX",
		Long: `vsxsync checks a declared extension list against the Open VSX
registry, derives VS Code Marketplace download URLs for everything the
registry cannot serve, and keeps a JSON ledger of download attempts.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yml", "path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewDownloadCommand(opts))
	cmd.AddCommand(NewDownloadByUUIDCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (o *RootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) config() (*config.Config, error) {
	return config.Load(o.ConfigPath)
}
