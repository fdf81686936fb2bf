package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jgivc/vsxsync/internal/adapter/manifest"
	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/jgivc/vsxsync/internal/service/resolver"
	"github.com/jgivc/vsxsync/internal/storage/results"
)

// DownloadByUUIDOptions holds flags for the download-by-uuid command.
type DownloadByUUIDOptions struct {
	*DownloadOptions
	Manifest string
}

// NewDownloadByUUIDCommand creates the download-by-uuid command.
func NewDownloadByUUIDCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DownloadByUUIDOptions{DownloadOptions: &DownloadOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "download-by-uuid <uuid>",
		Short: "Download one extension addressed by its marketplace uuid alias",
		Long: `Resolve the uuid to an extension id by scanning the last check's
results (and, with --manifest, the manifest itself as fallback), then
download it. The package file is named after the uuid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownloadByUUID(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DownloadsDir, "downloads-dir", "d", "", "downloads directory (default from config)")
	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "f", "", "manifest to use as a fallback for uuid resolution")

	return cmd
}

func runDownloadByUUID(opts *DownloadByUUIDOptions, alias string, cmd *cobra.Command) error {
	if _, err := uuid.Parse(alias); err != nil {
		return fmt.Errorf("invalid uuid %q: %w", alias, err)
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}

	log := opts.logger()

	var refs []entity.ExtensionRef
	if opts.Manifest != "" {
		refs, err = manifest.NewParser().ParseFile(opts.Manifest)
		if err != nil {
			return fmt.Errorf("cannot parse manifest: %w", err)
		}
	}

	resultsStore := results.NewStorage(cfg.ResultsFile, log)

	id, err := resolver.NewResolverService(resultsStore, log).ResolveID(cmd.Context(), alias, refs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s -> %s\n", alias, id)

	return runDownload(opts.DownloadOptions, id, alias+".vsix", cmd)
}
