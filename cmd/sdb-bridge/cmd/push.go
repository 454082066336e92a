package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/sdb-bridge/internal/service/deployer"
)

var (
	// overwrite replaces files that already exist on the device.
	overwrite bool
	// chmodMode is applied to every pushed file.
	chmodMode string
	// asRoot elevates privileges for the deployment.
	asRoot bool

	pushCmd = &cobra.Command{
		Use:   "push <local-glob> [remote-dir]",
		Short: "Push local files matching a pattern to a device directory.",
		Long: `Pushes every local file matching the pattern, one at a time, to the remote directory.

Existing remote files are kept unless --overwrite is set. The first failure stops
the deployment; files pushed before it remain on the device.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options := &deployer.PushOptions{
				Options:   commonOptions(),
				LocalGlob: args[0],
				Root:      asRoot,
			}

			if len(args) > 1 {
				options.RemoteDir = args[1]
			}

			// Flags only override settings when given explicitly.
			if cmd.Flags().Changed("overwrite") {
				options.Overwrite = &overwrite
			}

			if cmd.Flags().Changed("chmod") {
				options.Chmod = &chmodMode
			}

			return deployer.Push(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	pushCmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "overwrite files that already exist on the device")
	pushCmd.Flags().StringVar(&chmodMode, "chmod", "", "mode applied to pushed files, e.g. +x")
	pushCmd.Flags().BoolVar(&asRoot, "root", false, "switch sdb to root mode while pushing")
}
