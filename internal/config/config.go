package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Query   QueryConfig
	Report  ReportConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour. When both Certificate and
// PrivateKey are set the server listens over TLS with that pair.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Certificate     string
	PrivateKey      string
}

// StoreConfig locates the reference record store.
type StoreConfig struct {
	Dir string
}

// QueryConfig locates the transaction log and the result cache directory.
// An empty CacheDir disables result caching.
type QueryConfig struct {
	LogPath  string
	CacheDir string
}

// ReportConfig holds the signing material for serialized reports. Both
// paths must be set for signing to be enabled.
type ReportConfig struct {
	Certificate string
	PrivateKey  string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultStoreDir        = "data/store"
	defaultLogPath         = "data/transactions.csv"
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
)

// fileOptions mirrors the optional JSON options file. Fields left empty
// fall back to environment variables and defaults.
type fileOptions struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	StoreDir    string `json:"store_dir"`
	LogPath     string `json:"log_path"`
	CacheDir    string `json:"cache_dir"`
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"private_key"`
}

// Load reads configuration from the options file named by SERVER_OPTS
// (if any) and from environment variables, applying defaults. Environment
// variables win over the file.
func Load() (Config, error) {
	var opts fileOptions
	if path := os.Getenv("SERVER_OPTS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read options file: %w", err)
		}
		if err := json.Unmarshal(data, &opts); err != nil {
			return Config{}, fmt.Errorf("parse options file %s: %w", path, err)
		}
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", valueOr(opts.Host, defaultHost)),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Store: StoreConfig{
			Dir: valueOrDefault("STORE_DIR", valueOr(opts.StoreDir, defaultStoreDir)),
		},
		Query: QueryConfig{
			LogPath:  valueOrDefault("TRANSACTION_LOG", valueOr(opts.LogPath, defaultLogPath)),
			CacheDir: valueOrDefault("RESULT_CACHE_DIR", opts.CacheDir),
		},
		Report: ReportConfig{
			Certificate: valueOrDefault("REPORT_CERTIFICATE", opts.Certificate),
			PrivateKey:  valueOrDefault("REPORT_PRIVATE_KEY", opts.PrivateKey),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	// The same key pair backs both TLS serving and report signing.
	cfg.HTTP.Certificate = cfg.Report.Certificate
	cfg.HTTP.PrivateKey = cfg.Report.PrivateKey

	fallbackPort := defaultPort
	if opts.Port > 0 {
		fallbackPort = opts.Port
	}
	port, err := parsePort("SERVER_PORT", fallbackPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if v := os.Getenv("SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.IdleTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
	}

	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
