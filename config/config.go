package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"gainjar/core/genesis"
)

const (
	DefaultRPCAddress     = ":8080"
	DefaultMetricsAddress = ":9100"
	DefaultDataDir        = "./gainjar-data"
	DefaultNetworkName    = "gainjar-local"
	DefaultTriggerPolicy  = "employer_or_employee"
)

type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	MetricsAddress string   `toml:"MetricsAddress"`
	DataDir        string   `toml:"DataDir"`
	NetworkName    string   `toml:"NetworkName"`
	Environment    string   `toml:"Environment"`
	GenesisFile    string   `toml:"GenesisFile"`
	PausedModules  []string `toml:"PausedModules"`

	Payroll   Payroll   `toml:"payroll"`
	RateLimit RateLimit `toml:"rate_limit"`
	Telemetry Telemetry `toml:"telemetry"`
	Explorer  Explorer  `toml:"explorer"`
	Logging   Logging   `toml:"logging"`
	Genesis   Genesis   `toml:"genesis"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		RPCAddress:     DefaultRPCAddress,
		MetricsAddress: DefaultMetricsAddress,
		DataDir:        DefaultDataDir,
		NetworkName:    DefaultNetworkName,
		Environment:    "dev",
		PausedModules:  []string{},
		Payroll:        Payroll{TriggerPolicy: DefaultTriggerPolicy},
		RateLimit:      RateLimit{RequestsPerMinute: 600, Burst: 50},
		Telemetry:      Telemetry{SampleRatio: 1},
		Explorer:       Explorer{Path: "explorer.db"},
		Logging:        Logging{MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
		Genesis:        Genesis{Alloc: []genesis.Alloc{}},
	}
}

// Load loads the configuration from the given path. A missing file is
// replaced by the defaults, which are persisted for the next start.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.normalize()
	if err := cfg.resolveGenesisFile(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(c.Payroll.TriggerPolicy) == "" {
		c.Payroll.TriggerPolicy = DefaultTriggerPolicy
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
}

// resolveGenesisFile appends the allocations of an external genesis file.
// Relative paths resolve against the config file's directory.
func (c *Config) resolveGenesisFile(baseDir string) error {
	path := strings.TrimSpace(c.GenesisFile)
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	spec, err := genesis.LoadGenesisSpec(path)
	if err != nil {
		return fmt.Errorf("config: genesis file: %w", err)
	}
	if spec.ChainID != "" && spec.ChainID != c.NetworkName {
		return fmt.Errorf("config: genesis file chain id %q does not match NetworkName %q", spec.ChainID, c.NetworkName)
	}
	c.Genesis.Alloc = append(c.Genesis.Alloc, spec.Alloc...)
	return nil
}

// ResolvePath anchors a data-directory relative path such as the explorer
// index.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
