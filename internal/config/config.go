// Package config loads backoffice settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	Navigation NavigationConfig `yaml:"navigation"`
	Router     RouterConfig     `yaml:"router"`
	Logging    LoggingConfig    `yaml:"logging"`
	UI         UIConfig         `yaml:"ui"`

	// Token seeds the session when set (BACKOFFICE_TOKEN). Never read from file.
	Token string `yaml:"-"`
}

// APIConfig points at the admin API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	WebURL  string        `yaml:"web_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	// Backend is one of file, memory, redis, sqlite.
	Backend string       `yaml:"backend"`
	Path    string       `yaml:"path"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// SQLiteConfig contains SQLite database settings.
type SQLiteConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// NavigationConfig locates the navigation tree and route table. Empty paths
// use the built-in defaults.
type NavigationConfig struct {
	File   string `yaml:"file"`
	Routes string `yaml:"routes"`
}

// RouterConfig names the guard's special routes.
type RouterConfig struct {
	LoginPath        string `yaml:"login_path"`
	LandingPath      string `yaml:"landing_path"`
	UnauthorizedPath string `yaml:"unauthorized_path"`
	// CoalesceVerification shares one whoami call between concurrent first
	// navigations.
	CoalesceVerification bool `yaml:"coalesce_verification"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output"`
}

// UIConfig holds console display settings.
type UIConfig struct {
	RowsPerPage int    `yaml:"rows_per_page"`
	MediaURL    string `yaml:"media_url"`
}

// MediaPath resolves a media path stored by the API against MediaURL.
// Empty paths stay empty and absolute URLs are returned unchanged.
func (u UIConfig) MediaPath(path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	}
	return u.MediaURL + path
}

// Dir returns ~/.backoffice.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".backoffice"), nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	if v := os.Getenv("BACKOFFICE_CONFIG"); v != "" {
		return v
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration and applies environment variable overrides.
//
// The loading order is defaults, then the YAML file, then BACKOFFICE_* env
// vars. An explicit path must exist; the default path may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	dir, err := Dir()
	if err != nil {
		dir = ".backoffice"
	}
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
			WebURL:  "http://localhost:5173",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    filepath.Join(dir, "storage.json"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "backoffice:",
			},
			SQLite: SQLiteConfig{
				Path:        filepath.Join(dir, "backoffice.db"),
				BusyTimeout: 5,
			},
		},
		Router: RouterConfig{
			LoginPath:        "/login",
			LandingPath:      "/",
			UnauthorizedPath: "/unauthorized",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: filepath.Join(dir, "backoffice.log"),
		},
		UI: UIConfig{
			RowsPerPage: 5,
			MediaURL:    "https://blr1.vultrobjects.com/space-1/",
		},
	}
}

// applyEnvOverrides applies BACKOFFICE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKOFFICE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("BACKOFFICE_WEB_URL"); v != "" {
		cfg.API.WebURL = v
	}
	if v := os.Getenv("BACKOFFICE_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("BACKOFFICE_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("BACKOFFICE_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("BACKOFFICE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BACKOFFICE_LOG_OUTPUT"); v != "" {
		cfg.Logging.Output = v
	}
	if v := os.Getenv("BACKOFFICE_TOKEN"); v != "" {
		cfg.Token = strings.TrimSpace(v)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, "api.base_url must be an http(s) URL")
	}
	if c.API.Timeout < 0 {
		errs = append(errs, "api.timeout must not be negative")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Path == "" {
			errs = append(errs, "storage.path is required for the file backend")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, "storage.redis.addr is required for the redis backend")
		}
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, "storage.sqlite.path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q is not one of file, memory, redis, sqlite", c.Storage.Backend))
	}

	for name, p := range map[string]string{
		"router.login_path":        c.Router.LoginPath,
		"router.landing_path":      c.Router.LandingPath,
		"router.unauthorized_path": c.Router.UnauthorizedPath,
	} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, name+" must start with /")
		}
	}
	if c.Router.LoginPath == c.Router.LandingPath {
		errs = append(errs, "router.login_path and router.landing_path must differ")
	}

	if c.UI.RowsPerPage < 0 {
		errs = append(errs, "ui.rows_per_page must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
