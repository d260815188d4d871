package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/couchbase/stellar-connstr/pkg/app_config"
	"github.com/couchbase/stellar-connstr/pkg/metrics"
	"github.com/couchbase/stellar-connstr/pkg/webapi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watches a file holding a connection string and serves the parsed result",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context(), readWatchConfig(logger))
	},
}

func init() {
	configFlags := pflag.NewFlagSet("", pflag.ContinueOnError)
	configFlags.String("file", "connstr.txt", "the file holding the connection string")
	configFlags.String("bind-address", "0.0.0.0", "the local address to bind to")
	configFlags.Int("web-port", 9091, "the web metrics/descriptor port")
	watchCmd.Flags().AddFlagSet(configFlags)

	_ = viper.BindPFlags(configFlags)
}

type watchConfig struct {
	file        string
	bindAddress string
	webPort     int
}

func readWatchConfig(logger *zap.Logger) *watchConfig {
	config := &watchConfig{
		file:        viper.GetString("file"),
		bindAddress: viper.GetString("bind-address"),
		webPort:     viper.GetInt("web-port"),
	}

	logger.Info("parsed watch configuration",
		zap.String("file", config.file),
		zap.String("bindAddress", config.bindAddress),
		zap.Int("webPort", config.webPort))

	return config
}

func initMeterProvider() (*sdkmetric.MeterProvider, error) {
	promExp, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExp)), nil
}

func runWatch(ctx context.Context, config *watchConfig) error {
	meterProvider, err := initMeterProvider()
	if err != nil {
		return errors.Wrap(err, "failed to initialize metrics")
	}
	otel.SetMeterProvider(meterProvider)

	watcher, err := app_config.NewDescriptorWatcher(app_config.DescriptorWatcherOptions{
		Logger:  logger.Named("watcher"),
		Path:    config.file,
		Metrics: metrics.GetConnStrMetrics(),
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	webapi.InitializeWebServer(webapi.WebServerOptions{
		Logger:        logger.Named("webapi"),
		ListenAddress: fmt.Sprintf("%s:%v", config.bindAddress, config.webPort),
		Descriptors:   watcher,
	})

	changeCh := make(chan *mongoconnstr.Descriptor)
	unsub := watcher.Subscribe(changeCh)
	defer unsub()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case d := <-changeCh:
			hosts := d.EnsureHost()
			logger.Info("descriptor changed",
				zap.String("primary", hosts.Left().Address()),
				zap.Bool("paired", hosts.IsPaired()),
				zap.Bool("slaveOk", d.SlaveOk()))
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			return meterProvider.Shutdown(ctx)
		}
	}
}
