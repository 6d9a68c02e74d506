package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Oracle providers. ProviderNone disables the oracle; decisions then fail
// with an upstream error.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config captures the configuration of the bouncer service.
type Config struct {
	HTTPPort           int                 `yaml:"http_port"`
	Storage            string              `yaml:"storage"`
	SQLiteDSN          string              `yaml:"sqlite_dsn"`
	PostgresDSN        string              `yaml:"postgres_dsn"`
	Oracle             OracleConfig        `yaml:"oracle"`
	Transcription      TranscriptionConfig `yaml:"transcription"`
	HistoryWindowHours int                 `yaml:"history_window_hours"`
	LogLevel           string              `yaml:"log_level"`
	LogFormat          string              `yaml:"log_format"`
}

// OracleConfig selects and authenticates the decision oracle backend.
type OracleConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TranscriptionConfig selects the speech-to-text model. The provider and
// credentials are shared with the oracle.
type TranscriptionConfig struct {
	Model string `yaml:"model"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPPort:  8080,
		Storage:   StorageSQLite,
		SQLiteDSN: "file:bouncer.db",
		Oracle: OracleConfig{
			Provider: ProviderGemini,
			Timeout:  30 * time.Second,
		},
		HistoryWindowHours: 24,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load reads the optional YAML file named by BOUNCER_CONFIG, then the
// environment, and validates the result.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("BOUNCER_CONFIG")))
}

// LoadFile applies defaults, the YAML file at path (when non-empty) and the
// environment, in that order, and validates the result.
func LoadFile(path string) (Config, error) {
	return LoadFileWith(path)
}

// LoadFileWith is LoadFile with overrides applied after the environment,
// which is how command-line flags take precedence.
func LoadFileWith(path string, overrides ...func(*Config)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	invalid := applyEnv(&cfg)
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	for _, override := range overrides {
		if override != nil {
			override(&cfg)
		}
	}

	cfg.ApplyProviderDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) []string {
	invalid := make([]string, 0, 2)

	if v := env("BOUNCER_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			invalid = append(invalid, "BOUNCER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if v := env("BOUNCER_STORAGE"); v != "" {
		cfg.Storage = strings.ToLower(v)
	}
	if v := env("BOUNCER_SQLITE_DSN"); v != "" {
		cfg.SQLiteDSN = v
	}
	if v := env("BOUNCER_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := env("BOUNCER_ORACLE_PROVIDER"); v != "" {
		cfg.Oracle.Provider = strings.ToLower(v)
	}
	if v := env("BOUNCER_ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := env("BOUNCER_ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := env("BOUNCER_ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := env("BOUNCER_ORACLE_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			invalid = append(invalid, "BOUNCER_ORACLE_TIMEOUT")
		} else {
			cfg.Oracle.Timeout = timeout
		}
	}
	if v := env("BOUNCER_TRANSCRIPTION_MODEL"); v != "" {
		cfg.Transcription.Model = v
	}
	if v := env("BOUNCER_HISTORY_WINDOW_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			invalid = append(invalid, "BOUNCER_HISTORY_WINDOW_HOURS")
		} else {
			cfg.HistoryWindowHours = hours
		}
	}
	if v := env("BOUNCER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("BOUNCER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if cfg.Oracle.APIKey == "" {
		switch cfg.Oracle.Provider {
		case ProviderGemini:
			cfg.Oracle.APIKey = firstNonEmpty(env("GEMINI_API_KEY"), env("GOOGLE_API_KEY"))
		case ProviderOpenAI:
			cfg.Oracle.APIKey = env("OPENAI_API_KEY")
		}
	}

	return invalid
}

// ApplyProviderDefaults fills model names and endpoints the provider implies.
func (c *Config) ApplyProviderDefaults() {
	switch c.Oracle.Provider {
	case ProviderGemini:
		if c.Oracle.Model == "" {
			c.Oracle.Model = "gemini-2.5-flash"
		}
		if c.Transcription.Model == "" {
			c.Transcription.Model = c.Oracle.Model
		}
	case ProviderOpenAI:
		if c.Oracle.Model == "" {
			c.Oracle.Model = "gpt-4o-mini"
		}
		if c.Oracle.BaseURL == "" {
			c.Oracle.BaseURL = "https://api.openai.com/v1"
		}
		if c.Transcription.Model == "" {
			c.Transcription.Model = "whisper-1"
		}
	}
}

// Validate reports missing and invalid settings together.
func (c Config) Validate() error {
	var missing, invalid []string

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "http_port")
	}
	switch c.Storage {
	case StorageSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			missing = append(missing, "sqlite_dsn")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			missing = append(missing, "postgres_dsn")
		}
	case StorageMemory:
	default:
		invalid = append(invalid, "storage")
	}
	switch c.Oracle.Provider {
	case ProviderGemini, ProviderOpenAI:
		if strings.TrimSpace(c.Oracle.APIKey) == "" {
			missing = append(missing, "oracle.api_key")
		}
	case ProviderNone:
	default:
		invalid = append(invalid, "oracle.provider")
	}
	if c.Oracle.Timeout <= 0 {
		invalid = append(invalid, "oracle.timeout")
	}
	if c.HistoryWindowHours <= 0 {
		invalid = append(invalid, "history_window_hours")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, "log_level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		invalid = append(invalid, "log_format")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", ")))
	}
	return errors.Join(errs...)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
