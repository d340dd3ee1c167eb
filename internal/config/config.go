package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all budgetlens configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Thresholds Thresholds       `toml:"thresholds"`
	Columns    ColumnsConfig    `toml:"columns"`
	Server     ServerConfig     `toml:"server"`
	Playbooks  PlaybookConfig   `toml:"playbooks"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Tier  string `toml:"tier"`
	Scale string `toml:"scale"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxUploadMB  int    `toml:"max_upload_mb"`
	EventsBuffer int    `toml:"events_buffer"`
	LogLevel     string `toml:"log_level"`
}

// PlaybookConfig points at a directory of YAML playbooks. Empty means
// the built-in set.
type PlaybookConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Tier:  "premium",
			Scale: "raw",
		},
		Thresholds: DefaultThresholds(),
		Columns:    DefaultColumns(),
		Server: ServerConfig{
			Addr:         "127.0.0.1:8790",
			MaxUploadMB:  20,
			EventsBuffer: 200,
			LogLevel:     "info",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budgetlens")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path. Keys missing from the file keep
// their default values.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Decoding into a zeroed alias table lets a file fully replace the
	// default aliases instead of appending to them.
	var aliases struct {
		Columns struct {
			Aliases []ColumnAlias `toml:"alias"`
		} `toml:"columns"`
	}
	if err := toml.Unmarshal(data, &aliases); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if len(aliases.Columns.Aliases) > 0 {
		cfg.Columns.Aliases = aliases.Columns.Aliases
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// ApplyEnv overlays BUDGETLENS_* environment variables onto cfg.
// Environment wins over the config file.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("BUDGETLENS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BUDGETLENS_TIER"); v != "" {
		cfg.General.Tier = v
	}
	if v := os.Getenv("BUDGETLENS_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("BUDGETLENS_PLAYBOOKS_DIR"); v != "" {
		cfg.Playbooks.Dir = v
	}
	if v := os.Getenv("BUDGETLENS_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.MaxUploadMB = n
		}
	}
	if v := os.Getenv("BUDGETLENS_ALERT_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Thresholds.AlertPct = f
		}
	}
}
