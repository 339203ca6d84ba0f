// ABOUTME: medrec configuration management with backend selection.
// ABOUTME: Handles settings, environment overrides, and the storage backend factory.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/medrec/internal/charm"
	"github.com/harperreed/medrec/internal/storage"
)

// Backends lists the accepted values of Config.Backend.
var Backends = []string{"sqlite", "memory", "charm"}

const (
	defaultListenAddr = ":5000"
	defaultTokenTTL   = 24 * time.Hour
	defaultLogLevel   = "info"
)

// Config stores medrec configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default), "memory" or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage. SQLite puts medrec.db here.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/medrec.
	DataDir string `json:"data_dir,omitempty"`

	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string `json:"listen_addr,omitempty"`

	// JWTSecret signs login tokens. When empty, serve generates a
	// per-process secret and tokens die with the process.
	JWTSecret string `json:"jwt_secret,omitempty"`

	// TokenTTL is a Go duration string such as "24h".
	TokenTTL string `json:"token_ttl,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DefaultUser is the account CLI commands act as when --user is not given.
	DefaultUser string `json:"default_user,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetListenAddr returns the HTTP listen address, defaulting to ":5000".
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return defaultListenAddr
	}
	return c.ListenAddr
}

// GetTokenTTL parses TokenTTL, defaulting to 24h.
func (c *Config) GetTokenTTL() (time.Duration, error) {
	if c.TokenTTL == "" {
		return defaultTokenTTL, nil
	}
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("parse token_ttl %q: %w", c.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	return d, nil
}

// GetLogLevel returns the log level, defaulting to "info".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return defaultLogLevel
	}
	return c.LogLevel
}

// ApplyEnv overrides fields from MEDREC_BACKEND, MEDREC_DATA_DIR, PORT,
// JWT_SECRET and MEDREC_LOG_LEVEL when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MEDREC_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("MEDREC_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if strings.Contains(v, ":") {
			c.ListenAddr = v
		} else {
			c.ListenAddr = ":" + v
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("MEDREC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// settable maps config keys to their fields for Set and Get.
func (c *Config) settable() map[string]*string {
	return map[string]*string{
		"backend":      &c.Backend,
		"data_dir":     &c.DataDir,
		"listen_addr":  &c.ListenAddr,
		"jwt_secret":   &c.JWTSecret,
		"token_ttl":    &c.TokenTTL,
		"log_level":    &c.LogLevel,
		"default_user": &c.DefaultUser,
	}
}

// Keys returns every settable key in sorted order.
func (c *Config) Keys() []string {
	fields := c.settable()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to key after validating it.
func (c *Config) Set(key, value string) error {
	field, ok := c.settable()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(c.Keys(), ", "))
	}

	switch key {
	case "backend":
		if !isBackend(value) {
			return fmt.Errorf("unknown backend %q (valid: %s)", value, strings.Join(Backends, ", "))
		}
	case "token_ttl":
		if _, err := (&Config{TokenTTL: value}).GetTokenTTL(); err != nil {
			return err
		}
	case "log_level":
		switch value {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", value)
		}
	}

	*field = value
	return nil
}

// Get returns the raw value stored under key.
func (c *Config) Get(key string) (string, error) {
	field, ok := c.settable()[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return *field, nil
}

func isBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	return OpenBackend(c.GetBackend(), c.GetDataDir())
}

// OpenBackend opens the named backend rooted at dataDir.
func OpenBackend(backend, dataDir string) (storage.Repository, error) {
	switch backend {
	case "sqlite":
		dbPath := filepath.Join(dataDir, "medrec.db")
		return storage.Open(dbPath)
	case "memory":
		return storage.NewMemoryStore(), nil
	case "charm":
		return charm.InitClient()
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "medrec", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
