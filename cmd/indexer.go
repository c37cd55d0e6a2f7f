package cmd

import (
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/metrics"
	"github.com/mojo-fit/mojo-indexer/pkg/checkpoint"
	"github.com/mojo-fit/mojo-indexer/pkg/clients/ethereum"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/fetcher"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer"
	"github.com/mojo-fit/mojo-indexer/pkg/pipeline"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMetricsSink(cfg *config.Config, l *zap.Logger) *metrics.MetricsSink {
	metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		l.Sugar().Fatal("Failed to setup metrics sink", zap.Error(err))
	}

	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
	if err != nil {
		l.Sugar().Fatal("Failed to setup metrics sink", zap.Error(err))
	}
	return sink
}

// buildPipeline wires the ledger client, decoder, state models and checkpoint store.
func buildPipeline(
	cfg *config.Config,
	grm *gorm.DB,
	eb eventBusTypes.IEventBus,
	sink *metrics.MetricsSink,
	l *zap.Logger,
) (*pipeline.Pipeline, checkpoint.Store) {
	client := ethereum.NewClient(ethereum.ConvertGlobalConfigToEthereumConfig(&cfg.EthereumRpcConfig), l)

	decoder, err := events.NewDecoder(cfg.ContractsConfig.SessionAddress, cfg.ContractsConfig.FighterAddress, l)
	if err != nil {
		l.Sugar().Fatalw("Failed to create event decoder", zap.Error(err))
	}

	sm, err := materializer.NewLoadedStateManager(l, cfg)
	if err != nil {
		l.Sugar().Fatalw("Failed to load state models", zap.Error(err))
	}

	checkpoints := checkpoint.NewGormStore(grm, cfg.GetStartingCheckpoint(), l)

	p := pipeline.NewPipeline(fetcher.NewFetcher(client, l), decoder, checkpoints, sm, grm, eb, sink, cfg, l)
	return p, checkpoints
}
