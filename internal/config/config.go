// Package config loads router configuration from YAML and supports hot
// reload on file change.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "90s" or "1h" decode.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Routing     RoutingConfig     `yaml:"routing"`
	Models      []ModelConfig     `yaml:"models"`
	Vault       *VaultConfig      `yaml:"vault,omitempty"`
}

// CredentialsConfig names the secret references the router resolves at
// startup. References use the scheme syntax of the secret manager
// (env://NAME, vault://path#key); a bare string is a literal key.
type CredentialsConfig struct {
	// FreeKeyPrefix collects every environment variable sharing this
	// prefix into the free-tier pool.
	FreeKeyPrefix string `yaml:"free_key_prefix"`

	// FreeKeys lists explicit free-tier references, appended to the
	// prefix scan.
	FreeKeys []string `yaml:"free_keys"`

	// PaidKey is the billed credential reference. Empty disables the
	// paid escalation path.
	PaidKey string `yaml:"paid_key"`
}

// RoutingConfig holds the routing knobs.
type RoutingConfig struct {
	PreferredModels  []string `yaml:"preferred_models"`
	PaidModels       []string `yaml:"paid_models"`
	MaxContinuations int      `yaml:"max_continuations"`
	RequestTimeout   Duration `yaml:"request_timeout"`
	ExhaustionTTL    Duration `yaml:"exhaustion_ttl"`
	OpenAIBaseURL    string   `yaml:"openai_base_url"`
	AzureBaseURL     string   `yaml:"azure_base_url"`
}

// ModelConfig overrides or extends a catalog entry.
type ModelConfig struct {
	Identifier         string `yaml:"identifier"`
	Backend            string `yaml:"backend"`
	SupportsSystemRole *bool  `yaml:"supports_system_role,omitempty"`
	SupportsStreaming  *bool  `yaml:"supports_streaming,omitempty"`
	SupportsJSONMode   *bool  `yaml:"supports_json_mode,omitempty"`
	IsReasoningModel   *bool  `yaml:"is_reasoning_model,omitempty"`
	MaxInputTokens     int    `yaml:"max_input_tokens,omitempty"`
	MaxOutputTokens    int    `yaml:"max_output_tokens,omitempty"`
}

// VaultConfig enables the Vault secret provider.
type VaultConfig struct {
	Address  string `yaml:"address"`
	Token    string `yaml:"token,omitempty"`
	RoleID   string `yaml:"role_id,omitempty"`
	SecretID string `yaml:"secret_id,omitempty"`
	CACert   string `yaml:"ca_cert,omitempty"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Routing.MaxContinuations == 0 {
		c.Routing.MaxContinuations = 3
	}
	if c.Routing.RequestTimeout == 0 {
		c.Routing.RequestTimeout = Duration(5 * time.Minute)
	}
	if c.Routing.ExhaustionTTL == 0 {
		c.Routing.ExhaustionTTL = Duration(24 * time.Hour)
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.Identifier == "" {
			return fmt.Errorf("models[%d]: identifier is required", i)
		}
		if seen[m.Identifier] {
			return fmt.Errorf("models[%d]: duplicate identifier %q", i, m.Identifier)
		}
		seen[m.Identifier] = true
		switch m.Backend {
		case "", "openai", "azure":
		default:
			return fmt.Errorf("models[%d]: unknown backend %q", i, m.Backend)
		}
	}

	if c.Routing.MaxContinuations < 0 {
		return fmt.Errorf("routing.max_continuations must not be negative")
	}
	if c.Vault != nil {
		if c.Vault.Address == "" {
			return fmt.Errorf("vault.address is required when vault is configured")
		}
		if c.Vault.Token == "" && c.Vault.RoleID == "" {
			return fmt.Errorf("vault requires a token or approle role_id")
		}
	}
	return nil
}
