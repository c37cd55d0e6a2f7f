package cmd

import (
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const rebuildConfirm = "confirm"

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Delete all derived state so the next run replays the ledger from the start block",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		if !viper.GetBool(rebuildConfirm) {
			l.Sugar().Fatal("Refusing to delete derived state without --confirm")
		}

		grm, err := connectDatabase(cfg, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup database", zap.Error(err))
		}

		if err := storage.ResetDerivedState(grm); err != nil {
			l.Sugar().Fatalw("Failed to reset derived state", zap.Error(err))
		}
		l.Sugar().Infow("Derived state deleted",
			zap.Uint64("nextStartBlock", cfg.GetStartingCheckpoint()+1),
		)
	},
}
