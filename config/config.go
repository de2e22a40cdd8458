// Package config loads and validates healthdash configuration.
//
// Configuration is read once at startup (YAML file, then environment
// overrides) and passed explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported warehouse drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Config is the top-level configuration.
type Config struct {
	Warehouse Warehouse `yaml:"warehouse"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
}

// Warehouse holds the connection parameters of the relational warehouse.
type Warehouse struct {
	Driver   string `yaml:"driver"` // postgres | duckdb
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // DuckDB database file
}

// Server configures the dashboard HTTP listener.
type Server struct {
	Addr                string `yaml:"addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json | console
}

// Default returns a Config with every optional field defaulted.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills optional fields left empty. Credentials never get defaults.
func (c *Config) ApplyDefaults() {
	if c.Warehouse.Driver == "" {
		c.Warehouse.Driver = DriverPostgres
	}
	if c.Warehouse.Port == 0 {
		c.Warehouse.Port = 5432
	}
	if c.Warehouse.SSLMode == "" {
		c.Warehouse.SSLMode = "disable"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// ReadTimeout returns the server read timeout.
func (s Server) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (s Server) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// Load reads the YAML file at path (skipped when path is empty), applies
// WAREHOUSE_* and LOG_* environment overrides, then fills defaults.
// The result is not validated; call Validate before connecting.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Warehouse.LoadFromEnv("WAREHOUSE"); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadFromEnv overrides fields from <prefix>_HOST, <prefix>_PORT, <prefix>_USER,
// <prefix>_PASSWORD, <prefix>_DATABASE, <prefix>_SSLMODE, <prefix>_DRIVER and
// <prefix>_PATH when they are set.
func (w *Warehouse) LoadFromEnv(prefix string) error {
	set := func(name string, dst *string) {
		if v, ok := os.LookupEnv(prefix + "_" + name); ok && v != "" {
			*dst = v
		}
	}
	set("DRIVER", &w.Driver)
	set("HOST", &w.Host)
	set("USER", &w.User)
	set("PASSWORD", &w.Password)
	set("DATABASE", &w.Database)
	set("SSLMODE", &w.SSLMode)
	set("PATH", &w.Path)
	if v := os.Getenv(prefix + "_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_PORT: invalid port %q", prefix, v)
		}
		w.Port = port
	}
	return nil
}

// Validate checks that every required option for the selected driver is present.
func (w Warehouse) Validate() error {
	switch strings.ToLower(w.Driver) {
	case DriverPostgres:
		var missing []string
		if w.Host == "" {
			missing = append(missing, "host")
		}
		if w.User == "" {
			missing = append(missing, "user")
		}
		if w.Password == "" {
			missing = append(missing, "password")
		}
		if w.Database == "" {
			missing = append(missing, "database")
		}
		if len(missing) > 0 {
			return fmt.Errorf("warehouse: missing required option(s): %s", strings.Join(missing, ", "))
		}
		if w.Port <= 0 || w.Port > 65535 {
			return fmt.Errorf("warehouse: invalid port %d", w.Port)
		}
	case DriverDuckDB:
		if w.Path == "" {
			return errors.New("warehouse: duckdb driver requires path")
		}
	default:
		return fmt.Errorf("warehouse: unsupported driver %q", w.Driver)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (w Warehouse) DSN() string {
	if strings.EqualFold(w.Driver, DriverDuckDB) {
		return w.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(w.User, w.Password),
		Host:     fmt.Sprintf("%s:%d", w.Host, w.Port),
		Path:     "/" + w.Database,
		RawQuery: "sslmode=" + url.QueryEscape(w.SSLMode),
	}
	return u.String()
}

// SQLDriverName returns the database/sql driver name for the configured driver.
func (w Warehouse) SQLDriverName() string {
	if strings.EqualFold(w.Driver, DriverDuckDB) {
		return "duckdb"
	}
	return "pgx"
}

// Redacted returns a copy safe to log.
func (w Warehouse) Redacted() Warehouse {
	if w.Password != "" {
		w.Password = "****"
	}
	return w
}
