package config

import (
	"fmt"
	"net/url"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if !cfg.Explorer.UseMock {
		if cfg.Explorer.URL == "" {
			return fmt.Errorf("explorer.url must not be empty")
		}
		u, err := url.Parse(cfg.Explorer.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("explorer.url %q is not a valid URL", cfg.Explorer.URL)
		}
	}
	if cfg.Explorer.Timeout <= 0 {
		return fmt.Errorf("explorer.timeout must be positive")
	}
	if cfg.Fees.DefaultRate <= 0 {
		return fmt.Errorf("fees.defaultrate must be positive")
	}
	if cfg.Fees.Target <= 0 {
		return fmt.Errorf("fees.target must be positive")
	}
	return nil
}
