// Package config loads pipeline configuration from the environment.
// The config value is constructed once at process start and passed by
// reference into each component; nothing reads the environment later.
package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultSymbol     = "EUR/USD"
	DefaultInterval   = "1min"
	DefaultOutputSize = 10
	DefaultSSLMode    = "require" // most cloud Postgres providers require TLS

	// DefaultFetchTimeout bounds the upstream HTTP request.
	DefaultFetchTimeout = 20 * time.Second
	// DefaultConnectTimeout bounds the Postgres connection attempt,
	// passed to the server as connect_timeout (seconds).
	DefaultConnectTimeout = 10 * time.Second
)

// MissingVarsError reports required environment variables that are absent.
// The pipeline does not start when any are missing.
type MissingVarsError struct {
	Vars []string
}

func (e *MissingVarsError) Error() string {
	return fmt.Sprintf("config: missing required variables: %s", strings.Join(e.Vars, ", "))
}

// DB holds Postgres connection parameters.
type DB struct {
	Name     string
	User     string
	Password string
	Host     string
	Port     string
	SSLMode  string
}

// DSN renders the connection string consumed by pgx. The password is
// URL-escaped; connect_timeout keeps a dead host from hanging the run.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&connect_timeout=%d",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
		int(DefaultConnectTimeout.Seconds()),
	)
}

// Config is the full pipeline configuration.
type Config struct {
	APIKey     string
	Symbol     string
	Interval   string
	OutputSize int

	FetchTimeout time.Duration

	DB DB
}

// LoadEnvFile loads a .env file into the process environment when the
// file exists. Absent files are not an error: deployed runs get their
// variables from the scheduler's secret store.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds a Config from the environment. When requireDB is false
// (dry-run mode) the DB_* variables are not checked, matching a run that
// never touches storage.
func Load(requireDB bool) (*Config, error) {
	cfg := &Config{
		APIKey:       os.Getenv("API_KEY"),
		Symbol:       envOr("SYMBOL", DefaultSymbol),
		Interval:     envOr("INTERVAL", DefaultInterval),
		OutputSize:   DefaultOutputSize,
		FetchTimeout: DefaultFetchTimeout,
		DB: DB{
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			SSLMode:  envOr("DB_SSLMODE", DefaultSSLMode),
		},
	}

	if raw := os.Getenv("OUTPUTSIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: OUTPUTSIZE must be a positive integer, got %q", raw)
		}
		cfg.OutputSize = n
	}

	missing := map[string]string{
		"API_KEY": cfg.APIKey,
	}
	if requireDB {
		missing["DB_NAME"] = cfg.DB.Name
		missing["DB_USER"] = cfg.DB.User
		missing["DB_PASSWORD"] = cfg.DB.Password
		missing["DB_HOST"] = cfg.DB.Host
		missing["DB_PORT"] = cfg.DB.Port
	}

	var absent []string
	for name, value := range missing {
		if value == "" {
			absent = append(absent, name)
		}
	}
	if len(absent) > 0 {
		sort.Strings(absent)
		return nil, &MissingVarsError{Vars: absent}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
