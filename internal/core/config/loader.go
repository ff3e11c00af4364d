package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Monitor.FastCadence == 0 {
		cfg.Monitor.FastCadence = 10 * time.Second
	}
	if cfg.Monitor.SlowCadence == 0 {
		cfg.Monitor.SlowCadence = time.Minute
	}
	if cfg.Monitor.APICallThreshold == 0 {
		cfg.Monitor.APICallThreshold = 50
	}
	if cfg.Monitor.FetchTimeout == 0 {
		cfg.Monitor.FetchTimeout = 15 * time.Second
	}

	for i := range cfg.Chains {
		if cfg.Chains[i].Model == "" {
			cfg.Chains[i].Model = domain.ModelAccount
		}
		if cfg.Chains[i].RequiredConfirmations == 0 {
			cfg.Chains[i].RequiredConfirmations = 1
		}
	}
}

// validate fails fast on misconfiguration before any timer starts.
func validate(cfg *AppConfig) error {
	seen := make(map[domain.ChainID]struct{}, len(cfg.Chains))
	for _, c := range cfg.Chains {
		if c.ID == "" {
			return fmt.Errorf("chain config missing id")
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate chain config: %s", c.ID)
		}
		seen[c.ID] = struct{}{}

		if c.Model != domain.ModelAccount && c.Model != domain.ModelUTXO {
			return fmt.Errorf("chain %s: unknown model %q", c.ID, c.Model)
		}
		for _, cur := range c.Currencies {
			if cur.Symbol == "" {
				return fmt.Errorf("chain %s: currency missing symbol", c.ID)
			}
			switch cur.Class {
			case domain.ClassSingleSpender, domain.ClassMultiSpender, domain.ClassNative:
			default:
				return fmt.Errorf("chain %s: currency %s: unknown class %q", c.ID, cur.Symbol, cur.Class)
			}
		}
	}
	return nil
}
