package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/shutdown"
	"github.com/mojo-fit/mojo-indexer/internal/version"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
	"github.com/mojo-fit/mojo-indexer/pkg/pipeline"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const runProgress = "progress"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Index from the checkpoint to the current ledger tip",
	Long:  "Index from the checkpoint to the current ledger tip. With --indexer.poll-interval set, keep indexing on that interval until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		l.Sugar().Infow("mojo-indexer run",
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
		p, _ := buildPipeline(cfg, grm, eb, sink, l)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if viper.GetBool(runProgress) {
			listenForProgress(ctx, eb)
		}

		if cfg.IndexerConfig.PollInterval <= 0 {
			if _, err := p.Run(ctx); err != nil {
				l.Sugar().Fatalw("Indexing run failed", zap.Error(err))
			}
			return
		}

		go pollPipeline(ctx, p, cfg.IndexerConfig.PollInterval, l)

		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()
		done := make(chan bool)
		shutdown.ListenForShutdown(gracefulShutdown, done, func() {
			l.Sugar().Info("Shutting down...")
			cancel()
		}, time.Second*2, l)
	},
}

// pollPipeline runs the pipeline immediately and then on every tick until ctx is done.
func pollPipeline(ctx context.Context, p *pipeline.Pipeline, interval time.Duration, l *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, err := p.Run(ctx)
		switch {
		case err == nil, ctx.Err() != nil:
		case errors.Is(err, pipeline.ErrRunInProgress):
			l.Sugar().Debugw("Skipping scheduled run, another run is in progress")
		default:
			l.Sugar().Errorw("Scheduled indexing run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// listenForProgress draws a progress bar from window events, one bar per run.
func listenForProgress(ctx context.Context, eb eventBusTypes.IEventBus) {
	consumer := &eventBusTypes.Consumer{
		Id:      eventBusTypes.NewConsumerId("progress"),
		Context: ctx,
		Channel: make(chan *eventBusTypes.Event, 100),
	}
	eb.Subscribe(consumer)

	go func() {
		defer eb.Unsubscribe(consumer)

		var bar *progressbar.ProgressBar
		var startPosition uint64
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-consumer.Channel:
				switch data := event.Data.(type) {
				case *eventBusTypes.WindowProcessedData:
					if bar == nil {
						startPosition = data.FromPosition - 1
						bar = progressbar.Default(int64(data.LedgerTip-startPosition), "indexing blocks")
					}
					_ = bar.Set64(int64(data.ToPosition - startPosition))
				case *eventBusTypes.RunCompletedData:
					if bar != nil {
						_ = bar.Finish()
						fmt.Println()
						bar = nil
					}
				}
			}
		}
	}()
}
