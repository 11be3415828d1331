package config

import (
	"fmt"
	"net"
	"strings"

	"gainjar/core/genesis"
	"gainjar/crypto"
	"gainjar/native/payroll"
	"gainjar/rpc"
)

var knownModules = map[string]struct{}{
	"payroll": {},
	"bank":    {},
}

// Validate rejects configuration values the node cannot start with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if err := validateListen("RPCAddress", c.RPCAddress, false); err != nil {
		return err
	}
	if err := validateListen("MetricsAddress", c.MetricsAddress, true); err != nil {
		return err
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if _, err := c.TriggerPolicy(); err != nil {
		return err
	}
	if _, err := c.VaultAddress(); err != nil {
		return err
	}
	for _, module := range c.PausedModules {
		if _, ok := knownModules[strings.ToLower(strings.TrimSpace(module))]; !ok {
			return fmt.Errorf("config: unknown paused module %q", module)
		}
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("config: rate_limit values must not be negative")
	}
	if _, err := rpc.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("config: rate_limit: %w", err)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("config: telemetry.SampleRatio must be within [0,1]")
	}
	if (c.Telemetry.Traces || c.Telemetry.Metrics) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("config: telemetry.Endpoint required when exporters are enabled")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("config: logging rotation values must not be negative")
	}
	if _, err := genesis.Balances(c.Genesis.Alloc); err != nil {
		return fmt.Errorf("config: genesis: %w", err)
	}
	return nil
}

// TriggerPolicy parses Payroll.TriggerPolicy.
func (c *Config) TriggerPolicy() (payroll.TriggerPolicy, error) {
	policy, err := payroll.ParseTriggerPolicy(c.Payroll.TriggerPolicy)
	if err != nil {
		return policy, fmt.Errorf("config: payroll.TriggerPolicy: %w", err)
	}
	return policy, nil
}

// VaultAddress parses Payroll.VaultAddress. The zero address means the
// node default.
func (c *Config) VaultAddress() ([20]byte, error) {
	var out [20]byte
	if strings.TrimSpace(c.Payroll.VaultAddress) == "" {
		return out, nil
	}
	addr, err := crypto.ParseAddress(c.Payroll.VaultAddress)
	if err != nil {
		return out, fmt.Errorf("config: payroll.VaultAddress: %w", err)
	}
	return addr, nil
}

func validateListen(field, addr string, optional bool) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("config: %s required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	return nil
}
