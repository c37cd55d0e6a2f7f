package cmd

import (
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		if _, err := connectDatabase(cfg, l); err != nil {
			l.Sugar().Fatalw("Failed to migrate database", zap.Error(err))
		}
		l.Sugar().Info("Database is up to date")
	},
}
