package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oshokin/sdb-bridge/internal/service/deployer"
)

var (
	// latestOnly keeps only the most recently changed match.
	latestOnly bool

	lsCmd = &cobra.Command{
		Use:   "ls <pattern>",
		Short: "List remote files matching a pattern, newest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			files, err := deployer.List(ctx, &deployer.ListOptions{
				Options: commonOptions(),
				Pattern: args[0],
				Latest:  latestOnly,
			})
			if err != nil {
				return err
			}

			for _, file := range files {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), file)
			}

			return nil
		},
	}

	existsCmd = &cobra.Command{
		Use:   "exists <remote-path>",
		Short: "Print whether a file exists on the device.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options := commonOptions()

			exists, err := deployer.Exists(ctx, &options, args[0])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), exists)

			return nil
		},
	}

	chmodCmd = &cobra.Command{
		Use:   "chmod <mode> <remote-path>",
		Short: "Change the mode of a file on the device.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			options := commonOptions()

			return deployer.Chmod(ctx, &options, args[0], args[1])
		},
	}

	forwardCmd = &cobra.Command{
		Use:   "forward <local-port> <remote-port>",
		Short: "Forward a local TCP port to a device TCP port.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			localPort, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse local port: %w", err)
			}

			remotePort, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse remote port: %w", err)
			}

			ctx, stop := signalContext()
			defer stop()

			options := commonOptions()

			return deployer.Forward(ctx, &options, localPort, remotePort)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	lsCmd.Flags().BoolVar(&latestOnly, "latest", false, "print only the most recently changed file")
}
