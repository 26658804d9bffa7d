// Package config provides configuration loading and management using koanf.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName names the config and data directories.
	AppName = "aquote"

	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "AQUOTE_"

	// SystemConfigFile is the machine-wide config file.
	SystemConfigFile = "/etc/aquote/config.yaml"

	// configFileName is the file looked up in the user config directory.
	configFileName = "config.yaml"

	// logFileName is the default log file inside the data directory.
	logFileName = "aquote.log"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the root configuration structure.
type Config struct {
	DataDir       string                  `koanf:"data_dir"       validate:"required"`
	MaxQuotes     int                     `koanf:"max_quotes"     validate:"min=1"`
	EnableVendors []string                `koanf:"enable_vendors"`
	Vendors       map[string]VendorConfig `koanf:"vendors"        validate:"required,dive"`
	Log           LogConfig               `koanf:"log"            validate:"required"`
	Client        ClientConfig            `koanf:"client"         validate:"required"`
	Retry         RetryConfig             `koanf:"retry"          validate:"required"`
	Telemetry     TelemetryConfig         `koanf:"telemetry"`
	Metrics       MetricsConfig           `koanf:"metrics"`
}

// VendorConfig describes one quote vendor.
type VendorConfig struct {
	Name     string        `koanf:"name"     validate:"required"`
	Homepage string        `koanf:"homepage" validate:"omitempty,url"`
	Endpoint string        `koanf:"endpoint" validate:"required,http_url"`
	Queries  QueriesConfig `koanf:"queries"  validate:"required"`
}

// QueriesConfig holds the field queries run against a vendor response.
type QueriesConfig struct {
	Quote  string `koanf:"quote"  validate:"required"`
	Author string `koanf:"author" validate:"required"`
	URL    string `koanf:"url"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// ClientConfig contains HTTP client settings for vendor requests.
type ClientConfig struct {
	Timeout   time.Duration `koanf:"timeout"    validate:"required,min=100ms"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
}

// RetryConfig controls how often and how fast a failed fetch is retried.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" validate:"required,min=1,max=10"`
	Delay       time.Duration `koanf:"delay"        validate:"min=0"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// MetricsConfig contains Prometheus textfile export settings.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// LoadOptions selects the config files to read. Zero values use the
// standard locations.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string

	// SystemFile overrides SystemConfigFile.
	SystemFile string

	// UserFile overrides $XDG_CONFIG_HOME/aquote/config.yaml.
	UserFile string
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (AQUOTE_ prefix)
//  2. Explicit config file (--config)
//  3. User config file ($XDG_CONFIG_HOME/aquote/config.yaml)
//  4. System config file (/etc/aquote/config.yaml)
//  5. Built-in defaults (default.yaml)
//
// Derived defaults (data directory, enabled vendors, log file) are filled in
// afterwards. The result is not validated; call Validate.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	defaults, err := yaml.Parser().Unmarshal(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing defaults: %w", err)
	}

	if err := k.Load(confmap.Provider(defaults, ""), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load system and user config files if they exist
	systemFile := opts.SystemFile
	if systemFile == "" {
		systemFile = SystemConfigFile
	}

	if err := loadFileIfExists(k, systemFile); err != nil {
		return nil, fmt.Errorf("loading system config: %w", err)
	}

	userFile := opts.UserFile
	if userFile == "" {
		userFile = defaultUserFile()
	}

	if userFile != "" {
		if err := loadFileIfExists(k, userFile); err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	// 3. Load the explicit config file, which must exist
	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", opts.ConfigFile, err)
		}
	}

	// 4. Load environment variables with AQUOTE_ prefix
	known := k.Keys()
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, any) {
		key := envKey(known, name)
		if listKeys[key] {
			return key, splitList(value)
		}

		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.applyDerivedDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}

// envKey maps AQUOTE_MAX_QUOTES to max_quotes and AQUOTE_LOG_FILE_PATH to
// log.file.path. Keys known from earlier layers are matched first so
// underscores inside key names survive; unknown keys split on every "_".
func envKey(known []string, name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))

	for _, key := range known {
		if strings.ReplaceAll(key, ".", "_") == name {
			return key
		}
	}

	return strings.ReplaceAll(name, "_", ".")
}

// listKeys are settings whose environment value is a comma-separated list.
var listKeys = map[string]bool{
	"enable_vendors": true,
}

// splitList turns "quotable, favqs" into ["quotable" "favqs"]. Blank
// entries are dropped, so an empty value yields an empty list.
func splitList(value string) []string {
	items := []string{}

	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func defaultUserFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, AppName, configFileName)
}

// DefaultDataDir returns $XDG_DATA_HOME/aquote, falling back to
// ~/.local/share/aquote.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving data directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", AppName), nil
}

func (c *Config) applyDerivedDefaults() error {
	if c.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}

		c.DataDir = dir
	} else if rest, ok := strings.CutPrefix(c.DataDir, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expanding data_dir: %w", err)
		}

		c.DataDir = filepath.Join(home, rest)
	}

	if len(c.EnableVendors) == 0 {
		c.EnableVendors = c.VendorKeys()
	}

	if c.Log.File.Enabled && c.Log.File.Path == "" {
		c.Log.File.Path = filepath.Join(c.DataDir, logFileName)
	}

	return nil
}

// VendorKeys returns all configured vendor keys in sorted order.
func (c *Config) VendorKeys() []string {
	keys := make([]string, 0, len(c.Vendors))
	for key := range c.Vendors {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
