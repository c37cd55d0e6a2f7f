package cmd

import (
	"context"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/metrics/prometheus"
	"github.com/mojo-fit/mojo-indexer/internal/shutdown"
	"github.com/mojo-fit/mojo-indexer/internal/version"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus"
	"github.com/mojo-fit/mojo-indexer/pkg/rpcServer"
	"github.com/mojo-fit/mojo-indexer/pkg/service/indexDataService"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, optionally indexing on an interval",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		l.Sugar().Infow("mojo-indexer serve",
			zap.String("version", version.GetVersion()),
			zap.String("commit", version.GetCommit()),
		)

		if err := cfg.Validate(); err != nil {
			l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
		}

		grm, err := connectDatabase(cfg, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup database", zap.Error(err))
		}

		eb := eventBus.NewEventBus(l)
		sink := newMetricsSink(cfg, l)
		p, checkpoints := buildPipeline(cfg, grm, eb, sink, l)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ids := indexDataService.NewIndexDataService(grm, l, cfg)
		rpc := rpcServer.NewRpcServer(&rpcServer.RpcServerConfig{
			HttpPort:    cfg.RpcConfig.HttpPort,
			IndexSecret: cfg.RpcConfig.IndexSecret,
		}, ids, p, checkpoints, eb, sink, l, cfg)

		if err := rpc.Start(ctx); err != nil {
			l.Sugar().Fatalw("Failed to start RPC server", zap.Error(err))
		}

		if cfg.PrometheusConfig.Enabled {
			pServer := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{
				Port: cfg.PrometheusConfig.Port,
			}, l)
			if err := pServer.Start(ctx); err != nil {
				l.Sugar().Fatalw("Failed to start prometheus server", zap.Error(err))
			}
		}

		if cfg.IndexerConfig.PollInterval > 0 {
			go pollPipeline(ctx, p, cfg.IndexerConfig.PollInterval, l)
		}

		l.Sugar().Info("Started mojo-indexer")

		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()
		done := make(chan bool)
		shutdown.ListenForShutdown(gracefulShutdown, done, func() {
			l.Sugar().Info("Shutting down...")
			cancel()
		}, time.Second*5, l)
	},
}
