package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"sensor-etl/src/helpers"
	"sensor-etl/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither YAML nor environment set a value.
const (
	DefaultWindow      = "10m"
	DefaultStdMode     = StdModeSample
	DefaultDBUser      = "postgres"
	DefaultDBHost      = "localhost"
	DefaultDBPort      = 5432
	DefaultAPIURL      = "http://localhost:8000"
	DefaultTimeout     = 10
	DefaultScheduleAt  = "00:15"
	DefaultServerPort  = 8000
	DefaultGrpcPort    = 50051
	DefaultMetricsAddr = ":9102"

	StdModeSample     = "sample"
	StdModePopulation = "population"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig builds the configuration from an optional YAML file, the .env
// file and the process environment, in that order of increasing precedence.
func NewConfig(configPath string) (*Config, error) {
	var modelConfig models.MConfig

	// 1. Read the YAML file content, if any
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, helpers.NewConfigurationError("failed to read config file '%s': %v", configPath, err)
		}
		if err := yaml.Unmarshal(data, &modelConfig); err != nil {
			return nil, helpers.NewConfigurationError("failed to parse config from YAML: %v", err)
		}
	}

	// 2. .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, helpers.NewConfigurationError("failed to load .env: %v", err)
	}

	config := &Config{MConfig: &modelConfig}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("API_URL"); v != "" {
		c.Network.APIURL = v
	}

	for _, st := range []*models.MStorageConfig{&c.Source, &c.Target} {
		if v := os.Getenv("DB_USERNAME"); v != "" {
			st.Username = v
		}
		if v := os.Getenv("DB_PASSWORD"); v != "" {
			st.Password = v
		}
		if v := os.Getenv("DB_HOST"); v != "" {
			st.Host = v
		}
		if v := os.Getenv("DB_PORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return helpers.NewConfigurationError("invalid DB_PORT %q: %v", v, err)
			}
			st.Port = port
		}
	}

	if v := os.Getenv("SOURCE_DATABASE"); v != "" {
		c.Source.Database = v
	}
	if v := os.Getenv("TARGET_DATABASE"); v != "" {
		c.Target.Database = v
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "sensor-etl"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = DefaultServerPort
	}
	if c.GrpcHost == "" {
		c.GrpcHost = c.Host
	}
	if c.GrpcPort == 0 {
		c.GrpcPort = DefaultGrpcPort
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}

	for _, st := range []*models.MStorageConfig{&c.Source, &c.Target} {
		if st.DBType == "" {
			st.DBType = "postgres"
		}
		if st.Username == "" {
			st.Username = DefaultDBUser
		}
		if st.Host == "" {
			st.Host = DefaultDBHost
		}
		if st.Port == 0 {
			st.Port = DefaultDBPort
		}
		if st.SSLMode == "" {
			st.SSLMode = "disable"
		}
	}

	if c.Network.APIURL == "" {
		c.Network.APIURL = DefaultAPIURL
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = DefaultTimeout
	}
	if c.Network.BreakerFailures == 0 {
		c.Network.BreakerFailures = 3
	}
	if c.Network.BreakerOpenSecs == 0 {
		c.Network.BreakerOpenSecs = 30
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = c.Name
	}

	if c.Aggregation.Window == "" {
		c.Aggregation.Window = DefaultWindow
	}
	if c.Aggregation.StdMode == "" {
		c.Aggregation.StdMode = DefaultStdMode
	}
	if len(c.Aggregation.Signals) == 0 {
		c.Aggregation.Signals = append([]string(nil), models.DefaultSignals...)
	}

	if c.Schedule.At == "" {
		c.Schedule.At = DefaultScheduleAt
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return helpers.NewConfigurationError("invalid server port number: %d", c.Port)
	}
	if c.GrpcPort <= 0 || c.GrpcPort > 65535 {
		return helpers.NewConfigurationError("invalid grpc port number: %d", c.GrpcPort)
	}

	if err := validateStorage("source", c.Source); err != nil {
		return err
	}
	if err := validateStorage("target", c.Target); err != nil {
		return err
	}

	if c.Network.RequestTimeout <= 0 {
		return helpers.NewConfigurationError("request timeout must be greater than 0")
	}
	if c.Network.BreakerFailures <= 0 {
		return helpers.NewConfigurationError("breaker failures must be greater than 0")
	}
	if _, err := url.ParseRequestURI(c.Network.APIURL); err != nil {
		return helpers.NewConfigurationError("invalid api url %q: %v", c.Network.APIURL, err)
	}

	if _, err := c.Window(); err != nil {
		return err
	}
	if c.Aggregation.StdMode != StdModeSample && c.Aggregation.StdMode != StdModePopulation {
		return helpers.NewConfigurationError("std mode must be %q or %q, got %q", StdModeSample, StdModePopulation, c.Aggregation.StdMode)
	}
	for _, s := range c.Aggregation.Signals {
		if !models.IsSignalField(s) {
			return helpers.NewConfigurationError("unknown signal %q", s)
		}
	}

	if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
		return helpers.NewConfigurationError("schedule time must be HH:MM, got %q", c.Schedule.At)
	}

	return nil
}

func validateStorage(role string, st models.MStorageConfig) error {
	switch st.DBType {
	case "sqlite":
		if st.DBPath == "" {
			return helpers.NewConfigurationError("%s: database path cannot be empty for sqlite", role)
		}
	case "postgres":
		if st.DBConnectionString == "" && st.Database == "" {
			return helpers.NewConfigurationError("%s: database name cannot be empty for postgres", role)
		}
	default:
		return helpers.NewConfigurationError("%s: unsupported database type %q", role, st.DBType)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Window returns the aggregation bucket width.
func (c *Config) Window() (time.Duration, error) {
	d, err := time.ParseDuration(c.Aggregation.Window)
	if err != nil {
		return 0, helpers.NewConfigurationError("invalid aggregation window %q: %v", c.Aggregation.Window, err)
	}
	if d <= 0 {
		return 0, helpers.NewConfigurationError("aggregation window must be positive, got %s", d)
	}
	return d, nil
}

// RequestTimeout returns the per-request timeout of the source client.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Network.RequestTimeout) * time.Second
}

// -----------------------------------------------------------------------------

// DSN returns the driver data source name for a store.
func DSN(st models.MStorageConfig) string {
	if st.DBType == "sqlite" {
		return st.DBPath
	}
	if st.DBConnectionString != "" {
		return st.DBConnectionString
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", st.Host, st.Port),
		Path:   "/" + strings.TrimPrefix(st.Database, "/"),
	}
	if st.Password != "" {
		u.User = url.UserPassword(st.Username, st.Password)
	} else {
		u.User = url.User(st.Username)
	}
	q := u.Query()
	q.Set("sslmode", st.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
