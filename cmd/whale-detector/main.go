package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/doocho/usdc-whale-detector/internal/config"
	"github.com/doocho/usdc-whale-detector/internal/decode"
	"github.com/doocho/usdc-whale-detector/internal/feed"
	"github.com/doocho/usdc-whale-detector/internal/labels"
	"github.com/doocho/usdc-whale-detector/internal/metrics"
	"github.com/doocho/usdc-whale-detector/internal/monitor"
	"github.com/doocho/usdc-whale-detector/internal/sink"
)

func main() {
	root := &cobra.Command{
		Use:          "whale-detector",
		Short:        "Multi-chain USDC whale transfer monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitor",
		RunE:  runMonitor,
	}

	runCmd.Flags().Uint64("threshold-usd", 1_000_000, "alert threshold in whole USD")
	runCmd.Flags().Duration("poll-interval", 3*time.Second, "poll interval for http endpoints")
	runCmd.Flags().Duration("backoff.initial", time.Second, "initial reconnect backoff")
	runCmd.Flags().Duration("backoff.max", 30*time.Second, "maximum reconnect backoff")
	runCmd.Flags().String("labels", "./data/labels.json", "address labels JSON path")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address (empty disables metrics)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print the chain set",
		RunE:  runCheck,
	}

	root.AddCommand(checkCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := labels.LoadWithDefaults(cfg.LabelsPath, logger)

	reg := prometheus.NewRegistry()
	var instruments *metrics.Set
	if cfg.MetricsAddr != "" {
		instruments = metrics.NewSet(reg)
		go metrics.Serve(ctx, cfg.MetricsAddr, reg, logger)
	}

	pipelines := make([]monitor.Pipeline, 0, len(cfg.Chains))
	names := make([]string, 0, len(cfg.Chains))
	for _, chainCfg := range cfg.Chains {
		if err := chainCfg.Validate(); err != nil {
			logger.Error("chain disabled by configuration", zap.Error(err))
			continue
		}
		pipelines = append(pipelines, monitor.Pipeline{
			Feed:    feed.New(chainCfg, cfg.PollInterval, logger),
			Decoder: decode.NewDecoder(chainCfg.Name),
			Filter:  monitor.NewFilter(chainCfg, cfg.ThresholdUSD, store),
		})
		names = append(names, chainCfg.Name)
	}
	if len(pipelines) == 0 {
		return fmt.Errorf("no valid chains configured")
	}

	logger.Info("monitor start",
		zap.Uint64("threshold_usd", cfg.ThresholdUSD),
		zap.Int("labels", store.Len()),
		zap.Strings("chains", names),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("backoff_initial", cfg.Backoff.Initial),
		zap.Duration("backoff_max", cfg.Backoff.Max),
	)

	supervisor := monitor.NewSupervisor(
		pipelines,
		sink.NewConsole(os.Stdout),
		monitor.Backoff{Initial: cfg.Backoff.Initial, Max: cfg.Backoff.Max},
		logger,
		instruments,
	)

	return supervisor.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
