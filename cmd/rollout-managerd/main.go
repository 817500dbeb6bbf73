// Command rollout-managerd wires the rollout manager's collaborators
// together and runs it as a standalone process: load config, build the
// HTTP environment (logging, metrics, rate limiting), build the
// controller, and serve /metrics.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rollout-manager/assembler"
	"rollout-manager/config"
	"rollout-manager/environment"
	"rollout-manager/fetcher"
	"rollout-manager/rollout"
	"rollout-manager/throttle"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rollout-managerd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		metricsAddr string
		debug       bool
	)

	rootCmd := &cobra.Command{
		Use:   "rollout-managerd",
		Short: "Keeps a proxy's in-memory service configuration current with the control plane's published rollouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, metricsAddr, debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rollout-manager.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Address to serve /metrics on")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug-level logging")

	return rootCmd.Execute()
}

func serve(configPath, metricsAddr string, debug bool) error {
	opts, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	metrics := environment.NewMetrics(registry)

	env := environment.NewHTTPEnvironment(environment.Options{
		Logger:  logger,
		Metrics: metrics,
	})

	consumer := func(snapshot rollout.Snapshot) {
		fields := make([]zap.Field, 0, len(snapshot.Configs)+1)
		fields = append(fields, zap.String("rolloutId", string(snapshot.RolloutId)))
		for _, wc := range snapshot.Configs {
			fields = append(fields, zap.Int(string(wc.Config.Id), wc.Percent))
		}
		logger.Info("delivered rollout snapshot", fields...)
		metrics.ObserveSnapshotDelivered()
		// A real proxy swaps its live routing table here. Request-path
		// proxy logic is out of scope for this process.
	}

	controller := rollout.NewController(
		opts.ServiceName,
		consumer,
		env,
		throttle.NewRandomThrottler(opts.ThrottleWindow()),
		fetcher.NewHTTPFetcher(),
		assembler.NewFanOutAssembler(assembler.DefaultMaxConcurrentFetches),
		opts.ThrottleWindow(),
	)

	if opts.CurrentRolloutId != "" {
		controller.SetCurrentRolloutId(rollout.Id(opts.CurrentRolloutId))
	}

	notifications := make(chan rollout.Id, 1)
	go pollLatestRolloutId(opts.ServiceName, env, notifications)
	go func() {
		for id := range notifications {
			controller.ObserveRolloutId(id, env.Now())
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", zap.String("addr", metricsAddr))
	return http.ListenAndServe(metricsAddr, mux)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// pollLatestRolloutId is a minimal stand-in for the external notifier that
// normally tells the manager "here's the currently advertised rollout id" —
// that discovery mechanism lives outside this module. It polls the same
// rollouts-list endpoint the fetcher uses, purely to extract the id and
// feed ObserveRolloutId; a proxy with a push-based notifier would replace
// this goroutine entirely without touching the controller.
func pollLatestRolloutId(serviceName string, env rollout.EnvironmentPort, notifications chan<- rollout.Id) {
	f := fetcher.NewHTTPFetcher()
	for {
		f.Fetch(serviceName, env, func(res rollout.RolloutFetchResult) {
			if res.Err == nil {
				notifications <- res.RolloutId
			}
		})
		time.Sleep(30 * time.Second)
	}
}
