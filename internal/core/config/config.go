package config

import (
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Chains   []ChainConfig  `yaml:"chains"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MonitorConfig holds the deposit monitor settings.
type MonitorConfig struct {
	Enabled bool `yaml:"enabled"`

	// FastCadence drives chains with smart-contract tokens, SlowCadence
	// everything else.
	FastCadence time.Duration `yaml:"fast_cadence"`
	SlowCadence time.Duration `yaml:"slow_cadence"`

	// APICallThreshold is the per-chain explorer call budget per cycle.
	APICallThreshold int `yaml:"api_call_threshold"`

	// FetchTimeout bounds each per-address explorer call.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ChainConfig holds settings for a specific blockchain.
type ChainConfig struct {
	ID                    domain.ChainID    `yaml:"id"`
	Model                 domain.ChainModel `yaml:"model"` // "account" or "utxo"
	RequiredConfirmations uint64            `yaml:"required_confirmations"`
	Explorer              ExplorerConfig    `yaml:"explorer"`
	Currencies            []CurrencyConfig  `yaml:"currencies"`
}

// ExplorerConfig holds settings for the chain's explorer API. An empty URL
// means the chain is watched through a self-hosted node and is exempt from
// the external call budget.
type ExplorerConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// CurrencyConfig declares a currency issued on a chain.
type CurrencyConfig struct {
	Symbol   string               `yaml:"symbol"`
	Class    domain.ContractClass `yaml:"class"`
	Contract string               `yaml:"contract"`
}
