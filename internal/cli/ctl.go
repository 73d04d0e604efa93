package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relab/benor"
	"github.com/relab/benor/network"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	ctlAddr    string
	ctlTimeout time.Duration

	ctlCmd = &cobra.Command{
		Use:   "ctl",
		Short: "Call the gRPC endpoints of a single node.",
	}
)

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.PersistentFlags().StringVar(&ctlAddr, "addr", "localhost:8080", "address of the node")
	ctlCmd.PersistentFlags().DurationVar(&ctlTimeout, "rpc-timeout", 5*time.Second, "timeout for the call")

	ctlCmd.AddCommand(
		ctlCommand("status", "Print whether the node is live or faulty.", func(ctx context.Context, c *network.Client, cmd *cobra.Command) error {
			err := c.Status(ctx)
			switch {
			case err == nil:
				fmt.Fprintln(cmd.OutOrStdout(), "live")
			case errors.Is(err, benor.ErrFaulty):
				fmt.Fprintln(cmd.OutOrStdout(), "faulty")
			default:
				return err
			}
			return nil
		}),
		ctlCommand("state", "Print the node's state.", func(ctx context.Context, c *network.Client, cmd *cobra.Command) error {
			s, err := c.State(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}),
		ctlCommand("start", "Start the node; returns once it has entered round 1.", func(ctx context.Context, c *network.Client, _ *cobra.Command) error {
			return c.Start(ctx)
		}),
		ctlCommand("stop", "Kill the node.", func(ctx context.Context, c *network.Client, _ *cobra.Command) error {
			return c.Stop(ctx)
		}),
	)
}

func ctlCommand(use, short string, call func(context.Context, *network.Client, *cobra.Command) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			client, err := network.Dial(ctlAddr)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, client.Close()) }()

			ctx, cancel := context.WithTimeout(cmd.Context(), ctlTimeout)
			defer cancel()
			if err := call(ctx, client, cmd); err != nil {
				return fmt.Errorf("%s %s: %w", use, ctlAddr, err)
			}
			return nil
		},
	}
}
