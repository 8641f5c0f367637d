package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileName is the config file written by init and read by default.
const FileName = "savings.yaml"

// Environment variables that override the file.
const (
	EnvTargetCurrency = "SAVINGS_TARGET_CURRENCY"
	EnvEODHDKey       = "EODHD_API_KEY"
	EnvSpreadsheetID  = "GOOGLE_SPREADSHEET_ID"
	EnvAMQPURL        = "AMQP_URL"
)

// Config represents the top-level savings.yaml configuration.
type Config struct {
	DataPath       string        `yaml:"data_path" toml:"data_path"`
	TargetCurrency string        `yaml:"target_currency" toml:"target_currency"`
	IncludePension bool          `yaml:"include_pension" toml:"include_pension"`
	IncludeStock   bool          `yaml:"include_stock" toml:"include_stock"`
	Rates          RatesConfig   `yaml:"rates" toml:"rates"`
	Archive        ArchiveConfig `yaml:"archive" toml:"archive"`
	Output         OutputConfig  `yaml:"output" toml:"output"`
	Google         GoogleConfig  `yaml:"google" toml:"google"`
	AMQP           AMQPConfig    `yaml:"amqp" toml:"amqp"`
}

// RatesConfig controls how exchange rates are resolved.
type RatesConfig struct {
	Providers    []string          `yaml:"providers" toml:"providers"`
	Retries      int               `yaml:"retries" toml:"retries"`
	Backoff      string            `yaml:"backoff" toml:"backoff"` // e.g. "6h"
	Timeout      string            `yaml:"timeout" toml:"timeout"` // per provider call
	Workers      int               `yaml:"workers" toml:"workers"`
	HTTPCacheDir string            `yaml:"http_cache_dir,omitempty" toml:"http_cache_dir,omitempty"`
	EODHDKey     string            `yaml:"eodhd_api_key,omitempty" toml:"eodhd_api_key,omitempty"`
	Static       map[string]string `yaml:"static,omitempty" toml:"static,omitempty"`     // "USD/EUR" -> "0.9"
	Defaults     map[string]string `yaml:"defaults,omitempty" toml:"defaults,omitempty"` // manual fallback, "XAU" -> "2300"
	Endpoints    []EndpointConfig  `yaml:"endpoints,omitempty" toml:"endpoints,omitempty"`
}

// EndpointConfig declares a JSON rate endpoint usable as a provider name.
type EndpointConfig struct {
	Name string `yaml:"name" toml:"name"`
	URL  string `yaml:"url" toml:"url"`   // {from}, {to} and {date} are substituted
	Path string `yaml:"path" toml:"path"` // JSONPath to the rate
}

// ArchiveConfig locates the SQLite rate archive.
type ArchiveConfig struct {
	Path   string `yaml:"path" toml:"path"`
	Record bool   `yaml:"record" toml:"record"`
}

// OutputConfig controls what a report run writes besides the terminal report.
type OutputConfig struct {
	LogDir string `yaml:"log_dir" toml:"log_dir"`
	CSV    string `yaml:"csv,omitempty" toml:"csv,omitempty"`
}

// GoogleConfig reads the balance sheet from Google Sheets instead of DataPath.
type GoogleConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id,omitempty" toml:"spreadsheet_id,omitempty"`
	Range           string `yaml:"range" toml:"range"`
	CredentialsFile string `yaml:"credentials_file,omitempty" toml:"credentials_file,omitempty"`
}

// AMQPConfig controls report publishing.
type AMQPConfig struct {
	URL        string `yaml:"url,omitempty" toml:"url,omitempty"`
	Exchange   string `yaml:"exchange" toml:"exchange"`
	RoutingKey string `yaml:"routing_key" toml:"routing_key"`
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of Default and
// applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes a Config as YAML or TOML depending on the extension.
func Save(path string, cfg *Config) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		data = out
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvTargetCurrency); v != "" {
		c.TargetCurrency = v
	}
	if v := os.Getenv(EnvEODHDKey); v != "" {
		c.Rates.EODHDKey = v
	}
	if v := os.Getenv(EnvSpreadsheetID); v != "" {
		c.Google.SpreadsheetID = v
	}
	if v := os.Getenv(EnvAMQPURL); v != "" {
		c.AMQP.URL = v
	}
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		DataPath:       "balances.csv",
		TargetCurrency: "EUR",
		IncludeStock:   true,
		Rates: RatesConfig{
			Providers: []string{"frankfurter", "ecb"},
			Retries:   6,
			Backoff:   "6h",
			Timeout:   "5s",
			Workers:   8,
		},
		Archive: ArchiveConfig{
			Path: "rates.db",
		},
		Output: OutputConfig{
			LogDir: "logs",
		},
		Google: GoogleConfig{
			Range: "Sheet1",
		},
		AMQP: AMQPConfig{
			Exchange:   "savings",
			RoutingKey: "savings.report",
		},
	}
}
