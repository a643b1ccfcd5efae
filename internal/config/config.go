package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name inside the home directory.
const FileName = "agbank.yaml"

// Config represents the top-level agbank.yaml configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
	Activity ActivityConfig `yaml:"activity"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// APIConfig locates and paces the banking backend.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int           `yaml:"burst"`
}

// SessionConfig controls where the durable session lives.
type SessionConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// ActivityConfig controls the local log of mutations.
type ActivityConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// MetricsConfig controls the prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty"`
}

// envOverrides are read from the process environment (and .env) after the
// config file. Unset variables leave the file's value alone.
type envOverrides struct {
	BaseURL      string        `env:"AGBANK_API_URL"`
	Timeout      time.Duration `env:"AGBANK_API_TIMEOUT"`
	SessionDir   string        `env:"AGBANK_SESSION_DIR"`
	LogLevel     string        `env:"AGBANK_LOG_LEVEL"`
	LogFormat    string        `env:"AGBANK_LOG_FORMAT"`
	ActivityPath string        `env:"AGBANK_ACTIVITY_PATH"`
	MetricsPath  string        `env:"AGBANK_METRICS_TEXTFILE"`
}

// Load reads an agbank.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default(filepath.Dir(path))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Resolve loads path if it exists, falls back to defaults rooted at home
// otherwise, then applies .env and AGBANK_* overrides.
func Resolve(path, home, dotenv string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(home), nil
	}
	if err != nil {
		return nil, err
	}

	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("reading environment: %w", err)
	}
	if env.BaseURL != "" {
		c.API.BaseURL = env.BaseURL
	}
	if env.Timeout > 0 {
		c.API.Timeout = env.Timeout
	}
	if env.SessionDir != "" {
		c.Session.Dir = env.SessionDir
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		c.Log.Format = env.LogFormat
	}
	if env.ActivityPath != "" {
		c.Activity.Path = env.ActivityPath
	}
	if env.MetricsPath != "" {
		c.Metrics.TextfilePath = env.MetricsPath
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults rooted at home.
func Default(home string) *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:5000/api",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Session: SessionConfig{
			Dir: filepath.Join(home, "session"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Activity: ActivityConfig{
			Path:    filepath.Join(home, "activity.csv"),
			Enabled: true,
		},
	}
}

// DefaultHome is ~/.agbank, or ./.agbank when no home directory is known.
func DefaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".agbank"
	}
	return filepath.Join(dir, ".agbank")
}
