package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	main := DefaultMainnet()
	if main.Network != Mainnet {
		t.Errorf("DefaultMainnet network = %q, want %q", main.Network, Mainnet)
	}
	if main.Explorer.URL == "" {
		t.Error("DefaultMainnet explorer URL is empty")
	}
	if err := Validate(main); err != nil {
		t.Errorf("Validate(DefaultMainnet()) error: %v", err)
	}

	test := DefaultTestnet()
	if test.Network != Testnet {
		t.Errorf("DefaultTestnet network = %q, want %q", test.Network, Testnet)
	}
	if test.Explorer.URL == main.Explorer.URL {
		t.Error("testnet and mainnet share the same explorer URL")
	}
	if err := Validate(test); err != nil {
		t.Errorf("Validate(DefaultTestnet()) error: %v", err)
	}
}

func TestChainParams(t *testing.T) {
	if got := Mainnet.ChainParams().Name; got != "mainnet" {
		t.Errorf("Mainnet params = %q, want mainnet", got)
	}
	if got := Testnet.ChainParams().Name; got != "testnet3" {
		t.Errorf("Testnet params = %q, want testnet3", got)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil network", func(c *Config) { c.Network = "" }},
		{"unknown network", func(c *Config) { c.Network = "regtest" }},
		{"empty datadir", func(c *Config) { c.DataDir = "" }},
		{"empty explorer url", func(c *Config) { c.Explorer.URL = "" }},
		{"bad explorer url", func(c *Config) { c.Explorer.URL = "not a url" }},
		{"zero timeout", func(c *Config) { c.Explorer.Timeout = 0 }},
		{"zero fee rate", func(c *Config) { c.Fees.DefaultRate = 0 }},
		{"zero fee target", func(c *Config) { c.Fees.Target = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestValidateMockSkipsURL(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.Explorer.URL = ""
	cfg.Explorer.UseMock = true
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() with mock explorer error: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.conf")
	content := `# comment
network = testnet
explorer.url = "https://example.org/api"
explorer.timeout = 5s
fees.defaultrate = 25
log.level = debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig() error: %v", err)
	}

	if cfg.Network != Testnet {
		t.Errorf("network = %q, want testnet", cfg.Network)
	}
	if cfg.Explorer.URL != "https://example.org/api" {
		t.Errorf("explorer url = %q", cfg.Explorer.URL)
	}
	if cfg.Explorer.Timeout != 5*time.Second {
		t.Errorf("explorer timeout = %v, want 5s", cfg.Explorer.Timeout)
	}
	if cfg.Fees.DefaultRate != 25 {
		t.Errorf("fee rate = %d, want 25", cfg.Fees.DefaultRate)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadFileMissing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil {
		t.Fatalf("LoadFile() on missing file error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected empty values, got %d entries", len(values))
	}
}

func TestApplyFileConfigUnknownKey(t *testing.T) {
	cfg := DefaultMainnet()
	err := ApplyFileConfig(cfg, map[string]string{"bogus.key": "1"})
	if err == nil {
		t.Error("ApplyFileConfig() accepted unknown key")
	}
}

func TestFlagsApply(t *testing.T) {
	flags, err := ParseFlags([]string{
		"--network=testnet",
		"--fee-rate=42",
		"--explorer-mock",
		"balance",
	})
	if err != nil {
		t.Fatalf("ParseFlags() error: %v", err)
	}

	cfg := DefaultMainnet()
	if err := flags.Apply(cfg); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if cfg.Network != Testnet {
		t.Errorf("network = %q, want testnet", cfg.Network)
	}
	if cfg.Fees.DefaultRate != 42 {
		t.Errorf("fee rate = %d, want 42", cfg.Fees.DefaultRate)
	}
	if !cfg.Explorer.UseMock {
		t.Error("explorer mock not applied")
	}
	if len(flags.Args) != 1 || flags.Args[0] != "balance" {
		t.Errorf("remaining args = %v, want [balance]", flags.Args)
	}
}
