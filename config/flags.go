package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Explorer
	ExplorerURL     string
	ExplorerTimeout time.Duration
	ExplorerMock    bool

	// Fees
	FeeRate   int64
	FeeTarget int

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetExplorerMock bool
	SetLogJSON      bool
}

// ParseFlags parses command-line flags from the given arguments.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("sunuwallet", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Explorer
	fs.StringVar(&f.ExplorerURL, "explorer", "", "Chain indexer (esplora) base URL")
	fs.DurationVar(&f.ExplorerTimeout, "explorer-timeout", 0, "Chain indexer request timeout")
	fs.BoolVar(&f.ExplorerMock, "explorer-mock", false, "Use canned chain data (development only)")

	// Fees
	fs.Int64Var(&f.FeeRate, "fee-rate", 0, "Fallback fee rate in sat/vB when the fee oracle is unreachable")
	fs.IntVar(&f.FeeTarget, "fee-target", 0, "Confirmation target in blocks for fee estimation")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path (JSON format)")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Log JSON to stdout instead of colored console")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "explorer-mock":
			f.SetExplorerMock = true
		case "log-json":
			f.SetLogJSON = true
		}
	})

	f.Args = fs.Args()
	return f, nil
}

// Apply overlays the parsed flags onto a Config. Zero values mean
// "not set" and leave the Config untouched.
func (f *Flags) Apply(cfg *Config) error {
	if f.Network != "" {
		switch NetworkType(f.Network) {
		case Mainnet, Testnet:
			cfg.Network = NetworkType(f.Network)
		default:
			return fmt.Errorf("unknown network %q", f.Network)
		}
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.ExplorerURL != "" {
		cfg.Explorer.URL = f.ExplorerURL
	}
	if f.ExplorerTimeout > 0 {
		cfg.Explorer.Timeout = f.ExplorerTimeout
	}
	if f.SetExplorerMock {
		cfg.Explorer.UseMock = f.ExplorerMock
	}
	if f.FeeRate > 0 {
		cfg.Fees.DefaultRate = f.FeeRate
	}
	if f.FeeTarget > 0 {
		cfg.Fees.Target = f.FeeTarget
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
	return nil
}

// Usage prints flag usage to stderr.
func Usage() {
	fmt.Fprintf(os.Stderr, `sunuwallet - non-custodial Bitcoin wallet

Usage:
  sunuwallet [flags] <command> [args]

Commands:
  create              Create a new wallet (prints the mnemonic once)
  restore <mnemonic>  Restore a wallet from a mnemonic
  unlock              Unlock the stored wallet and print its address
  address             Show the wallet's receiving address
  balance             Show confirmed/unconfirmed balance
  send <addr> <sats>  Send satoshis to an address
  history             Show recent transactions
  fees                Show current fee estimates
  change-password     Re-encrypt the stored wallet under a new password
  remove              Delete the stored wallet (irreversible)

Flags:
  --network <net>        mainnet or testnet (default mainnet)
  --datadir <dir>        Data directory
  --config <file>        Config file path
  --explorer <url>       Esplora base URL
  --explorer-timeout <d> Indexer request timeout (e.g. 15s)
  --explorer-mock        Use canned chain data (development only)
  --fee-rate <n>         Fallback fee rate (sat/vB)
  --fee-target <n>       Confirmation target in blocks
  --log-level <lvl>      debug, info, warn, error
  --log-file <file>      Log file path
  --log-json             JSON log output
`)
}
