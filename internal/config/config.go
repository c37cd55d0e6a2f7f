package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "MOJO_INDEXER"

const DefaultChunkSize = 10_000

type DatabaseDriver string

const (
	DatabaseDriver_Postgres DatabaseDriver = "postgres"
	DatabaseDriver_Sqlite   DatabaseDriver = "sqlite"
)

type EthereumRpcConfig struct {
	BaseUrl string
	Retries int
}

type ContractsConfig struct {
	SessionAddress string
	FighterAddress string
}

type IndexerConfig struct {
	ChunkSize               uint64
	StartBlock              uint64
	IdempotentBattleCredits bool
	PollInterval            time.Duration
}

type DatabaseConfig struct {
	Driver     DatabaseDriver
	Host       string
	Port       int
	User       string
	Password   string
	DbName     string
	SchemaName string
	SSLMode    string
	SqlitePath string
}

type RpcConfig struct {
	HttpPort    int
	IndexSecret string
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type Config struct {
	Debug             bool
	EthereumRpcConfig EthereumRpcConfig
	ContractsConfig   ContractsConfig
	IndexerConfig     IndexerConfig
	DatabaseConfig    DatabaseConfig
	RpcConfig         RpcConfig
	DataDogConfig     DataDogConfig
	PrometheusConfig  PrometheusConfig
}

func StringWithDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

var (
	Debug = "debug"

	EthereumRpcBaseUrl = "ethereum.rpc_url"
	EthereumRpcRetries = "ethereum.rpc_retries"

	ContractsSessionAddress = "contracts.session_address"
	ContractsFighterAddress = "contracts.fighter_address"

	IndexerChunkSize               = "indexer.chunk_size"
	IndexerStartBlock              = "indexer.start_block"
	IndexerIdempotentBattleCredits = "indexer.idempotent_battle_credits"
	IndexerPollInterval            = "indexer.poll_interval"

	DatabaseDriverName = "database.driver"
	DatabaseHost       = "database.host"
	DatabasePort       = "database.port"
	DatabaseUser       = "database.user"
	DatabasePassword   = "database.password"
	DatabaseDbName     = "database.db_name"
	DatabaseSchemaName = "database.schema_name"
	DatabaseSSLMode    = "database.ssl_mode"
	DatabaseSqlitePath = "database.sqlite_path"

	RpcHttpPort    = "rpc.http_port"
	RpcIndexSecret = "rpc.index_secret"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample_rate"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"
)

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),

		EthereumRpcConfig: EthereumRpcConfig{
			BaseUrl: viper.GetString(normalizeFlagName(EthereumRpcBaseUrl)),
			Retries: viper.GetInt(normalizeFlagName(EthereumRpcRetries)),
		},

		ContractsConfig: ContractsConfig{
			SessionAddress: strings.ToLower(viper.GetString(normalizeFlagName(ContractsSessionAddress))),
			FighterAddress: strings.ToLower(viper.GetString(normalizeFlagName(ContractsFighterAddress))),
		},

		IndexerConfig: IndexerConfig{
			ChunkSize:               viper.GetUint64(normalizeFlagName(IndexerChunkSize)),
			StartBlock:              viper.GetUint64(normalizeFlagName(IndexerStartBlock)),
			IdempotentBattleCredits: viper.GetBool(normalizeFlagName(IndexerIdempotentBattleCredits)),
			PollInterval:            viper.GetDuration(normalizeFlagName(IndexerPollInterval)),
		},

		DatabaseConfig: DatabaseConfig{
			Driver:     DatabaseDriver(StringWithDefault(viper.GetString(normalizeFlagName(DatabaseDriverName)), string(DatabaseDriver_Postgres))),
			Host:       viper.GetString(normalizeFlagName(DatabaseHost)),
			Port:       viper.GetInt(normalizeFlagName(DatabasePort)),
			User:       viper.GetString(normalizeFlagName(DatabaseUser)),
			Password:   viper.GetString(normalizeFlagName(DatabasePassword)),
			DbName:     viper.GetString(normalizeFlagName(DatabaseDbName)),
			SchemaName: viper.GetString(normalizeFlagName(DatabaseSchemaName)),
			SSLMode:    viper.GetString(normalizeFlagName(DatabaseSSLMode)),
			SqlitePath: viper.GetString(normalizeFlagName(DatabaseSqlitePath)),
		},

		RpcConfig: RpcConfig{
			HttpPort:    viper.GetInt(normalizeFlagName(RpcHttpPort)),
			IndexSecret: viper.GetString(normalizeFlagName(RpcIndexSecret)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:        viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(normalizeFlagName(DataDogStatsdSampleRate)),
			},
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},
	}
}

// Validate checks the settings every indexing run depends on.
func (c *Config) Validate() error {
	if c.IndexerConfig.ChunkSize == 0 {
		return fmt.Errorf("%s must be greater than 0", IndexerChunkSize)
	}
	if !common.IsHexAddress(c.ContractsConfig.SessionAddress) {
		return fmt.Errorf("invalid session contract address '%s'", c.ContractsConfig.SessionAddress)
	}
	if !common.IsHexAddress(c.ContractsConfig.FighterAddress) {
		return fmt.Errorf("invalid fighter contract address '%s'", c.ContractsConfig.FighterAddress)
	}
	switch c.DatabaseConfig.Driver {
	case DatabaseDriver_Postgres, DatabaseDriver_Sqlite:
	default:
		return fmt.Errorf("unsupported database driver '%s'", c.DatabaseConfig.Driver)
	}
	return nil
}

// GetStartingCheckpoint is the checkpoint used before any window has been committed.
func (c *Config) GetStartingCheckpoint() uint64 {
	if c.IndexerConfig.StartBlock == 0 {
		return 0
	}
	return c.IndexerConfig.StartBlock - 1
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}
