package config

import "gainjar/core/genesis"

// Payroll controls the payroll engine.
type Payroll struct {
	// TriggerPolicy selects who may execute a due payment: "employer",
	// "employer_or_employee" or "anyone".
	TriggerPolicy string `toml:"TriggerPolicy"`
	// VaultAddress is the custody account holding deposited tokens. Empty
	// selects the built-in default.
	VaultAddress string `toml:"VaultAddress"`
}

// RateLimit bounds JSON-RPC requests per client address.
type RateLimit struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
	// TrustedProxies lists peers whose X-Forwarded-For and X-Real-IP
	// headers identify the client.
	TrustedProxies []string `toml:"TrustedProxies,omitempty"`
}

type Telemetry struct {
	Endpoint    string            `toml:"Endpoint"`
	Insecure    bool              `toml:"Insecure"`
	Headers     map[string]string `toml:"Headers,omitempty"`
	Traces      bool              `toml:"Traces"`
	Metrics     bool              `toml:"Metrics"`
	SampleRatio float64           `toml:"SampleRatio"`
}

type Explorer struct {
	// Path of the SQLite event index. Empty disables indexing.
	Path string `toml:"Path"`
}

// Logging configures the rotated log file. Stdout logging is always on.
type Logging struct {
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Genesis lists the bank balances credited on a fresh data directory.
type Genesis struct {
	Alloc []genesis.Alloc `toml:"Alloc"`
}
