package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relab/benor"
	"github.com/relab/benor/cluster"
	"github.com/relab/benor/internal/config"
	"github.com/relab/benor/logging"
	"github.com/relab/benor/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a cluster until all correct nodes have decided.",
	Long: `The run command creates a cluster of nodes in this process and starts every correct node.
It then polls the nodes until all correct nodes have decided, prints their final states
and checks that they agree on a value that some correct node started with.

The nodes talk through a simulated in-memory network by default.
Use '--transport grpc' to give each node its own gRPC server on the loopback interface.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.NewViper()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		return runCluster(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("nodes", 4, "number of nodes (N)")
	runCmd.Flags().Int("faults", 1, "number of faulty nodes to tolerate (F)")
	runCmd.Flags().IntSlice("values", nil, "initial value of each node (default random)")
	runCmd.Flags().IntSlice("faulty", nil, "ids of the nodes that never participate")
	runCmd.Flags().String("transport", string(cluster.Memory), "transport between nodes (memory, grpc)")
	runCmd.Flags().Duration("timeout", 30*time.Second, "how long to wait for consensus")
	runCmd.Flags().Duration("poll-interval", cluster.DefaultPollInterval, "interval at which node state is polled")
	runCmd.Flags().Duration("send-timeout", time.Second, "timeout for delivering a single gRPC message")
	runCmd.Flags().Float64("drop-rate", 0, "probability that the memory network loses a message")
	runCmd.Flags().Uint64("seed", 0, "seed for coin flips, message loss and random values (default random)")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	cobra.CheckErr(viper.BindPFlags(runCmd.Flags()))
}

func runCluster(ctx context.Context, cfg *config.ClusterConfig, out io.Writer) (err error) {
	logger := logging.New("run")

	setup, err := cfg.Setup()
	if err != nil {
		return err
	}
	opts := cfg.Options()

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, cluster.WithMetrics(metrics.New(reg, "benor")))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Metrics server failed: %v", err)
			}
		}()
		defer func() { err = multierr.Append(err, srv.Close()) }()
		logger.Infof("Serving metrics on http://%s/metrics", cfg.MetricsAddr)
	}

	c, err := cluster.New(setup, opts...)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, c.Close()) }()

	for _, id := range setup.Config.IDs() {
		if addr := c.Addr(id); addr != "" {
			logger.Infof("Node %d listening on %s", id, addr)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start nodes: %w", err)
	}
	states, err := c.AwaitConsensus(ctx)
	if err != nil {
		// report how far the nodes got
		states, _ = c.States(context.Background())
		printStates(out, setup, states)
		return fmt.Errorf("no consensus after %v: %w", time.Since(start).Round(time.Millisecond), err)
	}
	elapsed := time.Since(start)
	if err := c.Stop(context.Background()); err != nil {
		logger.Warnf("Failed to stop nodes: %v", err)
	}

	printStates(out, setup, states)
	if err := setup.Check(states); err != nil {
		return err
	}
	for _, s := range states {
		if s.IsDecided() {
			fmt.Fprintf(out, "consensus on %s after %v\n", s.X, elapsed.Round(time.Millisecond))
			break
		}
	}
	fmt.Fprintf(out, "decision round: %v\n", metrics.DecisionRounds(states))
	if net := c.Network(); net != nil {
		fmt.Fprintf(out, "messages: %d delivered, %d lost\n", net.Delivered(), net.Lost())
	}
	return nil
}

func printStates(out io.Writer, setup cluster.Setup, states []benor.NodeState) {
	for i, s := range states {
		role := "correct"
		if setup.IsFaulty(benor.ID(i)) {
			role = "faulty"
		}
		fmt.Fprintf(out, "node %d (%s, initial %s): %v\n", i, role, setup.Initial[i], s)
	}
}
