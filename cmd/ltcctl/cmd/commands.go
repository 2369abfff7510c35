package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tinarmengineering/ltc/internal/ltcctl"
)

func watchCmd(app *ltcctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Queue a job and print its progress until it finishes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return app.Watch(ctx, args[0])
		},
	}
	return cmd
}

func watchBatchCmd(app *ltcctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch-batch <job-id>...",
		Short: "Queue several jobs and print a summary of their states until all have finished.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return app.WatchBatch(ctx, args)
		},
	}
	return cmd
}

func decodeCmd(app *ltcctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Print a wire quantity, or an array of named quantities, in base units.",
		Long: `Print a wire quantity, or an array of named quantities, in base units.

The JSON record is read from the file given, or from standard input when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return app.Decode(path)
		},
	}
	return cmd
}

func encodeCmd(app *ltcctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <units> <value>...",
		Short: "Print the wire record of a quantity.",
		Long: `Print the wire record of a quantity.

Units are given as an expression such as "V/s" or "kg**-1*m**-1*s**2*A**2". A single value
is encoded as a scalar; several values form an array, laid out according to --shape if given.`,
		Example: `  ltcctl encode mm 10
  ltcctl encode A 1 2 3 4 --shape 2,2`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := cmd.Flags().GetIntSlice("shape")
			if err != nil {
				return errors.Errorf("error reading shape: %s", err)
			}
			values := make([]float64, 0, len(args)-1)
			for _, arg := range args[1:] {
				value, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return errors.Errorf("invalid value %q: %s", arg, err)
				}
				values = append(values, value)
			}
			return app.Encode(args[0], values, shape)
		},
	}
	cmd.Flags().IntSlice("shape", nil, "dimensions of the array, e.g. 2,3")
	return cmd
}

// Print version info and exit.
func versionCmd(app *ltcctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print client version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}

// signalContext is cancelled on SIGINT or SIGTERM, so ctrl-C stops a watch and cleans up its
// subscriptions.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
