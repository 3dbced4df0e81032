// Package config provides application configuration management with
// support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Data      DataConfig
	Screening ScreeningConfig
	Fetch     FetchConfig
	SDN       SDNConfig

	// SourcesFile points at the JSON file describing the polled sources.
	SourcesFile string
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DataConfig holds local storage configuration.
type DataConfig struct {
	// BasePath is the directory for the alert database.
	BasePath string
}

// ScreeningConfig holds the match classification policy.
type ScreeningConfig struct {
	// HighThreshold promotes a score to MATCH. Must exceed LowThreshold;
	// both live in [0,1] (validated when the classifier is built).
	HighThreshold float64
	// LowThreshold admits a score as CANDIDATE when the keyword gate
	// also passed.
	LowThreshold float64
	// ResultsLimit caps API result listings.
	ResultsLimit int
}

// FetchConfig bounds the per-cycle blocking phases.
type FetchConfig struct {
	// Timeout bounds one source fetch.
	Timeout time.Duration
	// ExtractTimeout bounds extraction over one fetch batch.
	ExtractTimeout time.Duration
}

// SDNConfig holds sanctions list sync configuration.
type SDNConfig struct {
	// ZipURL is tried first; XMLURL is the uncompressed fallback.
	ZipURL string
	XMLURL string
	// LocalPath, when set, loads the list from disk instead of
	// downloading, reloading on file change.
	LocalPath string
	// RefreshInterval is the snapshot refresh cadence, independent of
	// source polling.
	RefreshInterval time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for the alert database")
	sourcesFile := flag.String("sources-file", "", "Path to the sources JSON file")
	serverPort := flag.String("port", "", "Server port (default: 8080)")

	highThreshold := flag.String("high-threshold", "", "Score at or above which a mention is a MATCH (default: 0.90)")
	lowThreshold := flag.String("low-threshold", "", "Score at or above which a relevant mention is a CANDIDATE (default: 0.60)")
	resultsLimit := flag.String("results-limit", "", "Maximum results returned by the API (default: 300)")

	fetchTimeout := flag.String("fetch-timeout", "", "Per-source fetch timeout (default: 30s)")
	extractTimeout := flag.String("extract-timeout", "", "Per-batch extraction timeout (default: 30s)")

	sdnZipURL := flag.String("sdn-zip-url", "", "SDN XML zip download URL")
	sdnXMLURL := flag.String("sdn-xml-url", "", "SDN XML download URL (fallback)")
	sdnLocalPath := flag.String("sdn-local-path", "", "Local SDN XML file (disables downloading)")
	sdnRefresh := flag.String("sdn-refresh-interval", "", "Snapshot refresh cadence (default: 12h)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", "./data"),
		},
		Screening: ScreeningConfig{
			HighThreshold: getFloatConfigValue(*highThreshold, "HIGH_THRESHOLD", 0.90),
			LowThreshold:  getFloatConfigValue(*lowThreshold, "LOW_THRESHOLD", 0.60),
			ResultsLimit:  getIntConfigValue(*resultsLimit, "RESULTS_LIMIT", 300),
		},
		SDN: SDNConfig{
			ZipURL:    getConfigValue(*sdnZipURL, "SDN_ZIP_URL", "https://www.treasury.gov/ofac/downloads/sdn_xml.zip"),
			XMLURL:    getConfigValue(*sdnXMLURL, "SDN_XML_URL", "https://www.treasury.gov/ofac/downloads/sdn.xml"),
			LocalPath: getConfigValue(*sdnLocalPath, "SDN_LOCAL_PATH", ""),
		},
		SourcesFile: getConfigValue(*sourcesFile, "SOURCES_FILE", "sources.json"),
	}

	durations := []struct {
		dst      *time.Duration
		flagVal  string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, "", "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, "", "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, "", "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Fetch.Timeout, *fetchTimeout, "FETCH_TIMEOUT", "30s"},
		{&cfg.Fetch.ExtractTimeout, *extractTimeout, "EXTRACT_TIMEOUT", "30s"},
		{&cfg.SDN.RefreshInterval, *sdnRefresh, "SDN_REFRESH_INTERVAL", "12h"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
// Threshold ordering is enforced where the classifier is constructed.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}
	if c.SDN.LocalPath == "" && c.SDN.ZipURL == "" && c.SDN.XMLURL == "" {
		return errors.New("either SDN URLs or a local SDN path must be configured")
	}
	if c.Screening.ResultsLimit <= 0 {
		return errors.New("results limit must be positive")
	}

	return nil
}

// expandDataPath expands ~ and makes the data path absolute.
func (c *Config) expandDataPath() error {
	path := c.Data.BasePath
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	c.Data.BasePath = abs
	return nil
}

// getConfigValue returns the first non-empty value among flag, env, and
// default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// loadEnvFile loads KEY=VALUE pairs from a file into the process
// environment, skipping keys that are already set.
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
	return scanner.Err()
}
