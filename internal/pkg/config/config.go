package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // sqlite, postgres, redis or memory
	DSN           string `yaml:"dsn"`     // file path for sqlite, connection string for postgres
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"` // redis only
	Compress      bool   `yaml:"compress"`   // zstd-compress chunk values
}

type IngestConfig struct {
	ChunkSize         int           `yaml:"chunk_size"`
	DisableBackground bool          `yaml:"disable_background"` // always run on the caller's goroutine
	Handoff           string        `yaml:"handoff"`            // "share" (default) or "transfer"
	WorkerTimeout     time.Duration `yaml:"worker_timeout"`
	MaxWorkers        int           `yaml:"max_workers"`
	Charset           string        `yaml:"charset"` // for CSV exports that are not UTF-8
	SelfCheck         bool          `yaml:"self_check"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // DEBUG, INFO, WARN, ERROR
	File  string `yaml:"file"`  // optional JSON log file
}

type APIConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	MaxUploadMB       int           `yaml:"max_upload_mb"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:   "sqlite",
			DSN:       "oddsarchive.db",
			KeyPrefix: "oddsarchive:",
			Compress:  true,
		},
		Ingest: IngestConfig{
			ChunkSize:     2000,
			Handoff:       "share",
			WorkerTimeout: 2 * time.Minute,
			MaxWorkers:    1,
			Charset:       "windows-1254",
			SelfCheck:     true,
		},
		Logging: LoggingConfig{Level: "INFO"},
		API: APIConfig{
			Port:              8090,
			ReadHeaderTimeout: 5 * time.Second,
			AllowedOrigins:    []string{"*"},
			MaxUploadMB:       64,
		},
	}
}

// Load reads a YAML file over the defaults and applies environment overrides.
func Load(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	config.fillZero()
	return config, nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("ODDS_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("ODDS_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("ODDS_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("ODDS_REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := os.Getenv("ODDS_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ODDS_API_PORT %q: %w", v, err)
		}
		c.API.Port = port
	}
	return nil
}

// fillZero restores defaults for values a config file explicitly zeroed.
func (c *Config) fillZero() {
	d := Default()
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = d.Ingest.ChunkSize
	}
	if c.Ingest.MaxWorkers <= 0 {
		c.Ingest.MaxWorkers = d.Ingest.MaxWorkers
	}
	if c.Ingest.Handoff == "" {
		c.Ingest.Handoff = d.Ingest.Handoff
	}
	if c.API.ReadHeaderTimeout <= 0 {
		c.API.ReadHeaderTimeout = d.API.ReadHeaderTimeout
	}
	if c.API.MaxUploadMB <= 0 {
		c.API.MaxUploadMB = d.API.MaxUploadMB
	}
}

// LoadDotEnv loads the first .env file found among paths into the process
// environment. Missing files are not an error.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded .env", "path", path)
			return
		}
	}
	slog.Debug("No .env file found, using environment variables")
}
