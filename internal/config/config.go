package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	envRegistryURL = "VSXSYNC_REGISTRY_URL"
	envListen      = "VSXSYNC_LISTEN"
	envRedisURL    = "VSXSYNC_REDIS_URL"

	defaultRegistryURL  = "https://open-vsx.org/api"
	defaultListen       = ":8080"
	defaultResultsFile  = "results.json"
	defaultLedgerFile   = "downloads.json"
	defaultDownloadsDir = "downloads"
	defaultPageFile     = "page.md"
	defaultHTTPTimeout  = 60 * time.Second
)

type Config struct {
	Listen       string        `yaml:"listen"`
	LogLevel     string        `yaml:"log_level"`
	RegistryURL  string        `yaml:"registry_url"`
	RedisURL     string        `yaml:"redis_url"`
	ResultsFile  string        `yaml:"results_file"`
	LedgerFile   string        `yaml:"ledger_file"`
	DownloadsDir string        `yaml:"downloads_dir"`
	PageFile     string        `yaml:"page_file"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
}

// Load reads the YAML config file if it exists, applies defaults for
// every unset field and then env overrides (a .env file is honored when
// present). A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if v := os.Getenv(envRegistryURL); v != "" {
		cfg.RegistryURL = v
	}
	if v := os.Getenv(envListen); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv(envRedisURL); v != "" {
		cfg.RedisURL = v
	}

	cfg.applyDefaults()

	switch cfg.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return nil, fmt.Errorf("unknown log level: %s", cfg.LogLevel)
	}

	return cfg, nil
}

// MustLoad is Load for the server bootstrap path, where a broken config
// should stop the process immediately.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	if c.RegistryURL == "" {
		c.RegistryURL = defaultRegistryURL
	}
	if c.ResultsFile == "" {
		c.ResultsFile = defaultResultsFile
	}
	if c.LedgerFile == "" {
		c.LedgerFile = defaultLedgerFile
	}
	if c.DownloadsDir == "" {
		c.DownloadsDir = defaultDownloadsDir
	}
	if c.PageFile == "" {
		c.PageFile = defaultPageFile
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
}
