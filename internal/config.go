package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Store         StoreConfig         `mapstructure:"store"`
	Security      SecurityConfig      `mapstructure:"security"`
	Export        ExportConfig        `mapstructure:"export"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

const (
	StoreBackendLocal  = "local"
	StoreBackendRemote = "remote"
)

type StoreConfig struct {
	Backend   string            `mapstructure:"backend"`
	OpTimeout time.Duration     `mapstructure:"op_timeout"`
	Local     LocalStoreConfig  `mapstructure:"local"`
	Remote    RemoteStoreConfig `mapstructure:"remote"`
}

type LocalStoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver       string `mapstructure:"driver"`
	Source       string `mapstructure:"source"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RemoteStoreConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Channel   string `mapstructure:"channel"`
}

type SecurityConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	BCryptCost        int           `mapstructure:"bcrypt_cost"`
	AllowDemoFallback bool          `mapstructure:"allow_demo_fallback"`
}

const (
	CSVModeRFC4180 = "rfc4180"
	CSVModeLegacy  = "legacy"
)

type ExportConfig struct {
	CSVMode string `mapstructure:"csv_mode"`
	Dir     string `mapstructure:"dir"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LoadConfigFromEnv builds the config from plain environment variables, used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Store: StoreConfig{
			Backend:   getEnv("STORE_BACKEND", StoreBackendLocal),
			OpTimeout: getEnvAsDuration("STORE_OP_TIMEOUT", 5*time.Second),
			Local: LocalStoreConfig{
				Driver:       getEnv("STORE_LOCAL_DRIVER", "sqlite"),
				Source:       getEnv("STORE_LOCAL_SOURCE", "grievances.db"),
				MaxOpenConns: getEnvAsInt("STORE_LOCAL_MAX_OPEN_CONNS", 10),
				MaxIdleConns: getEnvAsInt("STORE_LOCAL_MAX_IDLE_CONNS", 5),
			},
			Remote: RemoteStoreConfig{
				Addr:      getEnv("STORE_REMOTE_ADDR", "localhost:6379"),
				Password:  getEnv("STORE_REMOTE_PASSWORD", ""),
				DB:        getEnvAsInt("STORE_REMOTE_DB", 0),
				KeyPrefix: getEnv("STORE_REMOTE_KEY_PREFIX", "grievance"),
				Channel:   getEnv("STORE_REMOTE_CHANNEL", "grievance:changes"),
			},
		},
		Security: SecurityConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 8*time.Hour),
			BCryptCost:        getEnvAsInt("BCRYPT_COST", 10),
			AllowDemoFallback: getEnvAsBool("ALLOW_DEMO_FALLBACK", false),
		},
		Export: ExportConfig{
			CSVMode: getEnv("EXPORT_CSV_MODE", CSVModeRFC4180),
			Dir:     getEnv("EXPORT_DIR", "."),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
				File:   getEnv("LOG_FILE", ""),
			},
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("store config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Export.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("export config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case StoreBackendLocal:
		if c.Local.Driver != "sqlite" && c.Local.Driver != "postgres" {
			return fmt.Errorf("unsupported local driver %q", c.Local.Driver)
		}
		if c.Local.Source == "" {
			return errors.New("local.source is required")
		}
		if c.Local.MaxIdleConns > c.Local.MaxOpenConns {
			return errors.New("max_idle_conns cannot be greater than max_open_conns")
		}
	case StoreBackendRemote:
		if c.Remote.Addr == "" {
			return errors.New("remote.addr is required")
		}
		if c.Remote.Channel == "" {
			return errors.New("remote.channel is required")
		}
	default:
		return fmt.Errorf("unknown backend %q, want %q or %q", c.Backend, StoreBackendLocal, StoreBackendRemote)
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 characters")
	}
	if c.SessionTTL < time.Minute {
		return errors.New("session_ttl must be at least 1m")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}

func (c *ExportConfig) Validate() error {
	if c.CSVMode != CSVModeRFC4180 && c.CSVMode != CSVModeLegacy {
		return fmt.Errorf("csv_mode must be %q or %q", CSVModeRFC4180, CSVModeLegacy)
	}
	return nil
}
