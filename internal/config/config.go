// Package config provides centralized configuration for the application.
// Settings are read from environment variables with sensible defaults and
// validated on startup so that misconfiguration fails fast.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Feed   FeedConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `split_words:"true" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response.
	// 0 disables it; the reset result endpoint blocks until completion.
	WriteTimeout time.Duration `split_words:"true" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `split_words:"true" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `split_words:"true" default:"60s"`
}

// StoreConfig holds settings for the local SQLite store and its side outputs.
type StoreConfig struct {
	// Path is the SQLite database file, recreated from scratch on each reset.
	Path string `default:"bookstore.sqlite"`

	// RejectLogPath is the plain-text rejection log, overwritten on each reset.
	RejectLogPath string `split_words:"true" default:"invalid_bookstore.txt"`

	// ReportPath is where the sales report is written on export.
	ReportPath string `split_words:"true" default:"sales_report.txt"`

	// ResetTimeout bounds one full fetch-validate-reload operation (default: 10m)
	ResetTimeout time.Duration `split_words:"true" default:"10m"`
}

// FeedConfig holds settings for the snapshot download.
type FeedConfig struct {
	// URL is the fixed location of the JSON snapshot document.
	URL string `default:"https://cdn.shopify.com/s/files/1/0883/3282/8936/files/data_bookstore_final.json?v=1762418524"`

	// Timeout is the HTTP client timeout for the download (default: 30s)
	Timeout time.Duration `default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `default:"text"`
}

// Load reads configuration from environment variables, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the server listen address in host:port form.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Store.Path == "" {
		errs = append(errs, "STORE_PATH is required")
	}
	if c.Store.RejectLogPath == "" {
		errs = append(errs, "STORE_REJECT_LOG_PATH is required")
	}
	if c.Store.ReportPath == "" {
		errs = append(errs, "STORE_REPORT_PATH is required")
	}
	if c.Store.ResetTimeout <= 0 {
		errs = append(errs, "STORE_RESET_TIMEOUT must be positive")
	}

	if c.Feed.URL == "" {
		errs = append(errs, "FEED_URL is required")
	} else if u, err := url.Parse(c.Feed.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("FEED_URL (%q) must be an http(s) URL", c.Feed.URL))
	}
	if c.Feed.Timeout <= 0 {
		errs = append(errs, "FEED_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
