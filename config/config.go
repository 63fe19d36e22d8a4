// Package config handles application configuration.
//
// All configuration is explicit: a Config is built in cmd/ (defaults,
// then config file, then flags) and injected into the keystore and
// wallet service constructors. There is no ambient global state.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// ChainParams returns the btcd chain parameters for the network.
func (n NetworkType) ChainParams() *chaincfg.Params {
	if n == Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// Config holds runtime configuration for the wallet.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Chain indexer
	Explorer ExplorerConfig

	// Fee policy
	Fees FeeConfig

	// Logging
	Log LogConfig
}

// ExplorerConfig holds chain-indexer (esplora) client settings.
type ExplorerConfig struct {
	URL     string        `conf:"explorer.url"`
	Timeout time.Duration `conf:"explorer.timeout"`

	// UseMock swaps the live indexer for deterministic canned data.
	// Development only: it is never a fallback when the live indexer
	// fails, it must be selected explicitly.
	UseMock bool `conf:"explorer.mock"`
}

// FeeConfig holds fee-estimation settings.
type FeeConfig struct {
	// DefaultRate is the sat/vB rate used when the fee oracle is
	// unreachable. Estimates built from it are flagged as degraded.
	DefaultRate int64 `conf:"fees.defaultrate"`

	// Target is the confirmation target (in blocks) asked of the
	// fee oracle.
	Target int `conf:"fees.target"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// WalletDBDir returns the directory holding the encrypted wallet store:
// <datadir>/<network>/wallet
func (c *Config) WalletDBDir() string {
	return filepath.Join(c.DataDir, string(c.Network), "wallet")
}

// DefaultDataDir returns the platform-specific default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./sunusav"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "SunuSav")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "SunuSav")
		}
		return filepath.Join(home, "SunuSav")
	default:
		return filepath.Join(home, ".sunusav")
	}
}
