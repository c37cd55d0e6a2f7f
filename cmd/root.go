package cmd

import (
	"os"
	"strings"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "mojo-indexer",
	Short: "Indexes workout sessions, stakes, fighters and challenges from the chain into a queryable database",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String("ethereum.rpc-url", "", `e.g. "http://<hostname>:8545"`)
	rootCmd.PersistentFlags().Int("ethereum.rpc-retries", 0, `The number of times to retry a failed RPC request`)

	rootCmd.PersistentFlags().String("contracts.session-address", "", `Address of the workout session contract`)
	rootCmd.PersistentFlags().String("contracts.fighter-address", "", `Address of the fighter contract`)

	rootCmd.PersistentFlags().Uint64("indexer.chunk-size", config.DefaultChunkSize, `The maximum number of blocks processed per window`)
	rootCmd.PersistentFlags().Uint64("indexer.start-block", 0, `The first block to index when no checkpoint exists`)
	rootCmd.PersistentFlags().Bool("indexer.idempotent-battle-credits", false, `Credit wins and losses at most once per challenge`)
	rootCmd.PersistentFlags().Duration("indexer.poll-interval", 0, `Run the indexer on this interval, e.g. "30s". 0 disables polling`)

	rootCmd.PersistentFlags().String("database.driver", string(config.DatabaseDriver_Postgres), `"postgres" or "sqlite"`)
	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "mojo", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String("database.db-name", "mojo_indexer", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String("database.schema-name", "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String("database.ssl-mode", "disable", `PostgreSQL ssl mode`)
	rootCmd.PersistentFlags().String("database.sqlite-path", "mojo-indexer.db", `Path to the sqlite database file`)

	rootCmd.PersistentFlags().Int("rpc.http-port", 7101, `http rpc port`)
	rootCmd.PersistentFlags().String("rpc.index-secret", "", `Bearer secret required to trigger an indexing run over http`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64("datadog.statsd.sample-rate", 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(runVersionCmd)

	// bind any subcommand flags
	runCmd.PersistentFlags().Bool(runProgress, false, `Show a progress bar while indexing`)
	rebuildCmd.PersistentFlags().Bool(rebuildConfirm, false, `Confirm deleting all derived state`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// bindCommandFlags binds a subcommand's own flags the same way the root flags are bound.
func bindCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}
