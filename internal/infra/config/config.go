package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
)

// EnvPrefix namespaces every environment override, e.g. SUMMARIZER_ENDPOINT_BASE_URL.
const EnvPrefix = "SUMMARIZER"

// Config aggregates runtime configuration for the web app and the CLI.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	Form     FormConfig     `yaml:"form"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`
}

// HTTPConfig controls the page server.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout" split_words:"true"`
	WriteTimeout time.Duration   `yaml:"writeTimeout" split_words:"true"`
	RateLimit    RateLimitConfig `yaml:"rateLimit" split_words:"true"`
	CORS         CORSConfig      `yaml:"cors"`
}

// RateLimitConfig throttles form submissions per client IP.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute" split_words:"true"`
	Burst             int  `yaml:"burst"`
}

// CORSConfig lists origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" split_words:"true"`
}

// EndpointConfig locates the remote summarize service.
type EndpointConfig struct {
	BaseURL string `yaml:"baseUrl" split_words:"true"`
}

// FormConfig tunes the submission form.
type FormConfig struct {
	StalePolicy  string `yaml:"stalePolicy" split_words:"true"`
	MaxFileBytes int64  `yaml:"maxFileBytes" split_words:"true"`
}

// SessionConfig controls per-browser form sessions.
type SessionConfig struct {
	CookieName  string        `yaml:"cookieName" split_words:"true"`
	IdleTTL     time.Duration `yaml:"idleTtl" split_words:"true"`
	MaxSessions int           `yaml:"maxSessions" split_words:"true"`
}

// StorageConfig enables picking files from S3-compatible object storage.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey" split_words:"true"`
	SecretKey string `yaml:"secretKey" split_words:"true"`
	Region    string `yaml:"region"`
}

// Load reads .env, a YAML file and environment variables, in that order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Default returns the built-in configuration that Load starts from.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:     ":3000",
			ReadTimeout: 30 * time.Second,
			// Zero disables the write deadline: submit waits for the endpoint with no timeout.
			WriteTimeout: 0,
			// Opt-in host guard; the form itself never refuses a submission with a file.
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 30,
				Burst:             10,
			},
		},
		Endpoint: EndpointConfig{
			BaseURL: "http://localhost:8000",
		},
		Form: FormConfig{
			StalePolicy:  string(form.PolicyLastResolved),
			// Zero leaves uploads unbounded.
			MaxFileBytes: 0,
		},
		Session: SessionConfig{
			CookieName:  "summarizer_session",
			IdleTTL:     2 * time.Hour,
			MaxSessions: 1000,
		},
		Storage: StorageConfig{
			Region: "auto",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Address) == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 {
		return errors.New("http timeouts cannot be negative")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Endpoint.BaseURL) == "" {
		return errors.New("endpoint.baseUrl cannot be empty")
	}
	if _, err := form.ParsePolicy(c.Form.StalePolicy); err != nil {
		return fmt.Errorf("form.stalePolicy: %w", err)
	}
	if c.Form.MaxFileBytes < 0 {
		return errors.New("form.maxFileBytes cannot be negative")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if c.Session.IdleTTL < 0 {
		return errors.New("session.idleTtl cannot be negative")
	}
	if c.Session.MaxSessions < 0 {
		return errors.New("session.maxSessions cannot be negative")
	}
	if c.Storage.Enabled && strings.TrimSpace(c.Storage.Endpoint) == "" {
		return errors.New("storage.endpoint cannot be empty when storage is enabled")
	}
	return nil
}

// StalePolicy returns the parsed form policy. Call after Validate.
func (c *Config) StalePolicy() form.Policy {
	policy, _ := form.ParsePolicy(c.Form.StalePolicy)
	return policy
}
