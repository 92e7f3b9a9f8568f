// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/double-agentx/lib/mib"
	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "DOUBLE_AGENTX_CONFIG"

// DefaultPath is the config file [Load] falls back to when
// EnvironmentVariable is unset.
const DefaultPath = "~/.config/double-agentx/config.yaml"

// Config is the master configuration.
type Config struct {
	// Connection configures the AgentX master agent connection.
	Connection ConnectionConfig `yaml:"connection"`

	// OIDBase is the subtree registered with the master agent. Every
	// metric group is placed beneath it.
	OIDBase oid.OID `yaml:"oid_base"`

	// Description is sent in the AgentX Open PDU and shows up in the
	// master agent's session listing.
	Description string `yaml:"description"`

	// Metrics are the metric groups, each with its own command.
	Metrics []mib.Group `yaml:"metrics"`
}

// ConnectionConfig configures the AgentX session.
type ConnectionConfig struct {
	// Socket is the master agent's AgentX Unix socket.
	// Default: /var/agentx/master
	Socket string `yaml:"socket"`

	// AgentTimeout is the per-request timeout the master agent should
	// apply to this subagent, sent in the Open PDU. Whole seconds,
	// at most 255.
	// Default: 5s
	AgentTimeout time.Duration `yaml:"agent_timeout"`

	// ReconnectInterval is how long to wait after a dropped or failed
	// connection before dialing again.
	// Default: 60s
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// Default returns the default configuration. The config file is
// required; defaults only fill optional fields.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Socket:            "/var/agentx/master",
			AgentTimeout:      5 * time.Second,
			ReconnectInterval: 60 * time.Second,
		},
		Description: "double-agentx",
	}
}

// Load loads configuration from the path in the DOUBLE_AGENTX_CONFIG
// environment variable, or from DefaultPath if it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath != "" {
		return LoadFile(configPath)
	}
	if _, err := os.Stat(expandHome(DefaultPath)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s environment variable not set and %s does not exist; "+
			"set it to the path of your config file, or use --config flag: %w",
			EnvironmentVariable, expandHome(DefaultPath), os.ErrNotExist)
	}
	return LoadFile(DefaultPath)
}

// LoadFile loads, expands, and validates configuration from path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(expandHome(path)); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFile reads one file and merges it into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ~ and ${VAR} patterns in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Connection.Socket = expandVars(expandHome(c.Connection.Socket), vars)
}

// expandHome replaces a leading "~" with $HOME.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return os.Getenv("HOME") + path[1:]
	}
	return path
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, including compiling
// every metric group.
func (c *Config) Validate() error {
	var errs []error

	if c.Connection.Socket == "" {
		errs = append(errs, fmt.Errorf("connection.socket is required"))
	}

	if c.Connection.AgentTimeout < 0 || c.Connection.AgentTimeout > 255*time.Second {
		errs = append(errs, fmt.Errorf("connection.agent_timeout must be between 0s and 255s, got %s", c.Connection.AgentTimeout))
	}

	if c.Connection.ReconnectInterval <= 0 {
		errs = append(errs, fmt.Errorf("connection.reconnect_interval must be positive"))
	}

	if c.OIDBase.IsNull() {
		errs = append(errs, fmt.Errorf("oid_base is required"))
	}

	if len(c.Metrics) == 0 {
		errs = append(errs, fmt.Errorf("at least one entry in metrics is required"))
	}

	names := make(map[string]bool, len(c.Metrics))
	for i, group := range c.Metrics {
		if group.Name == "" {
			errs = append(errs, fmt.Errorf("metrics[%d].name is required", i))
			continue
		}
		if names[group.Name] {
			errs = append(errs, fmt.Errorf("metrics[%d]: duplicate group name %q", i, group.Name))
		}
		names[group.Name] = true
	}

	if !c.OIDBase.IsNull() {
		if err := mib.Compile(c.OIDBase, c.Metrics); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
