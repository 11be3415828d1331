package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gainjar/core/genesis"
	"gainjar/crypto"
	"gainjar/native/payroll"
)

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != DefaultRPCAddress || cfg.NetworkName != DefaultNetworkName {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not persisted: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Payroll.TriggerPolicy != DefaultTriggerPolicy {
		t.Fatalf("expected persisted trigger policy, got %q", reloaded.Payroll.TriggerPolicy)
	}
	if reloaded.RateLimit.RequestsPerMinute != cfg.RateLimit.RequestsPerMinute || reloaded.RateLimit.Burst != cfg.RateLimit.Burst {
		t.Fatalf("rate limit did not round trip: %+v vs %+v", reloaded.RateLimit, cfg.RateLimit)
	}
}

func TestLoadParsesSections(t *testing.T) {
	employer := crypto.FormatAddress([20]byte{0x01})
	token := crypto.FormatAddress([20]byte{0x02})
	vault := crypto.FormatAddress([20]byte{0x03})
	path := writeConfig(t, t.TempDir(), `RPCAddress = "127.0.0.1:9000"
MetricsAddress = ""
DataDir = "/var/lib/gainjar"
NetworkName = "gainjar-test"
PausedModules = ["payroll"]

[payroll]
TriggerPolicy = "anyone"
VaultAddress = "`+vault+`"

[rate_limit]
RequestsPerMinute = 120
Burst = 10
TrustedProxies = ["10.0.0.1", "10.8.0.0/16"]

[explorer]
Path = "index.db"

[[genesis.Alloc]]
address = "`+employer+`"
token = "`+token+`"
amount = "5000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	policy, err := cfg.TriggerPolicy()
	if err != nil || policy != payroll.TriggerAnyone {
		t.Fatalf("trigger policy = %v, %v", policy, err)
	}
	addr, err := cfg.VaultAddress()
	if err != nil || addr != ([20]byte{0x03}) {
		t.Fatalf("vault = %x, %v", addr, err)
	}
	if len(cfg.Genesis.Alloc) != 1 || cfg.Genesis.Alloc[0].Amount != "5000" {
		t.Fatalf("unexpected genesis %+v", cfg.Genesis.Alloc)
	}
	if cfg.RateLimit.RequestsPerMinute != 120 || cfg.RateLimit.Burst != 10 || len(cfg.RateLimit.TrustedProxies) != 2 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if got := cfg.ResolvePath(cfg.Explorer.Path); got != filepath.Join("/var/lib/gainjar", "index.db") {
		t.Fatalf("explorer path = %s", got)
	}
	// Unset sections keep their defaults.
	if cfg.Logging.MaxBackups != 5 {
		t.Fatalf("expected logging defaults, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `RPCAddress = ":8080"
DataDir = "./data"
ValidatorKeystorePath = "old.keystore"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "ValidatorKeystorePath") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadMergesGenesisFile(t *testing.T) {
	dir := t.TempDir()
	employer := crypto.FormatAddress([20]byte{0x11})
	token := crypto.FormatAddress([20]byte{0x22})
	genesisJSON := `{"chainId":"gainjar-local","alloc":[{"address":"` + employer + `","token":"` + token + `","amount":"42"}]}`
	if err := os.WriteFile(filepath.Join(dir, "genesis.json"), []byte(genesisJSON), 0o644); err != nil {
		t.Fatalf("write genesis: %v", err)
	}
	path := writeConfig(t, dir, `RPCAddress = ":8080"
DataDir = "./data"
GenesisFile = "genesis.json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Genesis.Alloc) != 1 || cfg.Genesis.Alloc[0].Amount != "42" {
		t.Fatalf("genesis file not merged: %+v", cfg.Genesis.Alloc)
	}

	path = writeConfig(t, dir, `RPCAddress = ":8080"
DataDir = "./data"
NetworkName = "other"
GenesisFile = "genesis.json"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected chain id mismatch")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing rpc address", func(c *Config) { c.RPCAddress = "" }},
		{"malformed rpc address", func(c *Config) { c.RPCAddress = "localhost" }},
		{"missing data dir", func(c *Config) { c.DataDir = " " }},
		{"unknown trigger policy", func(c *Config) { c.Payroll.TriggerPolicy = "whoever" }},
		{"bad vault", func(c *Config) { c.Payroll.VaultAddress = "0x1234" }},
		{"unknown paused module", func(c *Config) { c.PausedModules = []string{"lending"} }},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }},
		{"bad trusted proxy", func(c *Config) { c.RateLimit.TrustedProxies = []string{"proxy.local"} }},
		{"sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 2 }},
		{"exporter without endpoint", func(c *Config) { c.Telemetry.Traces = true }},
		{"bad genesis amount", func(c *Config) {
			c.Genesis.Alloc = append(c.Genesis.Alloc, genesisAlloc("-5"))
		}},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func genesisAlloc(amount string) genesis.Alloc {
	return genesis.Alloc{
		Address: crypto.FormatAddress([20]byte{0x01}),
		Token:   crypto.FormatAddress([20]byte{0x02}),
		Amount:  amount,
	}
}
