package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML durations given either as strings ("45s", "1h")
// or as plain numbers of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds int64
	if errInt := value.Decode(&seconds); errInt == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	var raw string
	if errStr := value.Decode(&raw); errStr == nil {
		parsed, errParse := time.ParseDuration(strings.TrimSpace(raw))
		if errParse != nil {
			return fmt.Errorf("config: invalid duration %q: %w", raw, errParse)
		}
		*d = Duration(parsed)
		return nil
	}
	return fmt.Errorf("config: invalid duration value")
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config models metagate.yml.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	API struct {
		// Host is the base URL of the action backend the controller
		// invokes, e.g. "https://controller:443".
		Host    string `yaml:"host"`
		Path    string `yaml:"path"`
		Version string `yaml:"version"`
	} `yaml:"api"`

	Meta struct {
		Prefix string `yaml:"prefix"`
	} `yaml:"meta"`

	System struct {
		// Namespace is the privileged namespace holding meta packages
		// and their actions; its subject record supplies the outbound
		// credentials.
		Namespace string `yaml:"namespace"`
	} `yaml:"system"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	Redis struct {
		Addr       string   `yaml:"addr"`
		Password   string   `yaml:"password"`
		DB         int      `yaml:"db"`
		PackageTTL Duration `yaml:"package-ttl"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret   string   `yaml:"jwt-secret"`
		TokenExpiry Duration `yaml:"token-expiry"`
	} `yaml:"auth"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max-size-mb"`
		MaxBackups int    `yaml:"max-backups"`
		MaxAgeDays int    `yaml:"max-age-days"`
	} `yaml:"logging"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: invalid yaml: %w", errUnmarshal)
	}
	cfg.applyDefaults()
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8080"
	}
	if strings.TrimSpace(c.API.Path) == "" {
		c.API.Path = "api"
	}
	if strings.TrimSpace(c.API.Version) == "" {
		c.API.Version = "v1"
	}
	if strings.TrimSpace(c.Meta.Prefix) == "" {
		c.Meta.Prefix = "meta"
	}
	if strings.TrimSpace(c.System.Namespace) == "" {
		c.System.Namespace = "whisk.system"
	}
	if c.Auth.TokenExpiry <= 0 {
		c.Auth.TokenExpiry = Duration(time.Hour)
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.Host) == "" {
		return fmt.Errorf("config: api.host is required")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: auth.jwt-secret is required")
	}
	if strings.Contains(c.Meta.Prefix, "/") {
		return fmt.Errorf("config: meta.prefix must be a single path segment")
	}
	return nil
}
