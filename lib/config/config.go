// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Role is the viewer's role in a ticket conversation.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupport  Role = "support"
)

// AI provider names accepted in ai.provider.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config is the master configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Backend BackendConfig `yaml:"backend"`
	AI      AIConfig      `yaml:"ai"`
	Poll    PollConfig    `yaml:"poll"`
	Log     LogConfig     `yaml:"log"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Metrics MetricsConfig `yaml:"metrics"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment sections. Only non-empty fields
// replace base values.
type Overrides struct {
	Backend *BackendConfig `yaml:"backend,omitempty"`
	AI      *AIConfig      `yaml:"ai,omitempty"`
	Poll    *PollConfig    `yaml:"poll,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// BackendConfig locates the support backend.
type BackendConfig struct {
	// URL is the base URL; API paths (/api/...) are appended to it.
	URL string `yaml:"url"`

	// Timeout bounds each backend request. Default: 10s.
	Timeout string `yaml:"timeout"`
}

// AIConfig selects and configures the generation provider used for
// '>' prompts.
type AIConfig struct {
	// Provider is one of ollama, openai, anthropic, gemini.
	Provider string `yaml:"provider"`

	// Endpoint is the provider URL. For ollama this is the full
	// /api/generate URL; for openai the base URL ending in /v1; for
	// anthropic the API root. Unused for gemini.
	Endpoint string `yaml:"endpoint"`

	Model string `yaml:"model"`

	// APIKey is usually written as ${SOME_ENV_VAR}. Ollama ignores it.
	APIKey string `yaml:"api_key"`

	// Timeout bounds one generation, including the modelfile fetch.
	// Default: 60s.
	Timeout string `yaml:"timeout"`

	// RequestsPerMinute throttles generation requests. Zero disables
	// throttling.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// PollConfig configures the ticket refresh loop.
type PollConfig struct {
	// Interval between refreshes. Default: 3s.
	Interval string `yaml:"interval"`
}

// LogConfig configures the slog handler built by the CLI.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// ViewerConfig identifies who is looking at the ticket.
type ViewerConfig struct {
	Role Role `yaml:"role"`

	// AgentID is the support agent's identifier. Required for the
	// support role, ignored for customers.
	AgentID string `yaml:"agent_id"`

	// CompanyID selects the tenant modelfile for AI prompts. Empty
	// means the ticket's own company.
	CompanyID string `yaml:"company_id"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a host:port for /metrics. Empty disables it.
	Listen string `yaml:"listen"`
}

// Default returns a Config with local development defaults.
func Default() *Config {
	return &Config{
		Environment: Development,
		Backend: BackendConfig{
			URL:     "http://127.0.0.1:5000",
			Timeout: "10s",
		},
		AI: AIConfig{
			Provider: ProviderOllama,
			Endpoint: "http://127.0.0.1:11434/api/generate",
			Model:    "llama3.2:latest",
			Timeout:  "60s",
		},
		Poll: PollConfig{Interval: "3s"},
		Log:  LogConfig{Level: "info", Format: "text"},
		Viewer: ViewerConfig{
			Role: RoleCustomer,
		},
	}
}

// Load loads configuration from the file named by SUPPORTCHAT_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("SUPPORTCHAT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SUPPORTCHAT_CONFIG environment variable not set; " +
			"set it to the path of your supportchat.yaml, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over [Default].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// LoadDotenv reads KEY=VALUE files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadDotenv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: loading %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the stripped document goes
		// through the same decoder and struct tags.
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults to warn-level logs in JSON.
		if overrides == nil {
			overrides = &Overrides{
				Log: &LogConfig{Level: "warn", Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Backend != nil {
		override(&c.Backend.URL, overrides.Backend.URL)
		override(&c.Backend.Timeout, overrides.Backend.Timeout)
	}

	if overrides.AI != nil {
		override(&c.AI.Provider, overrides.AI.Provider)
		override(&c.AI.Endpoint, overrides.AI.Endpoint)
		override(&c.AI.Model, overrides.AI.Model)
		override(&c.AI.APIKey, overrides.AI.APIKey)
		override(&c.AI.Timeout, overrides.AI.Timeout)
		if overrides.AI.RequestsPerMinute != 0 {
			c.AI.RequestsPerMinute = overrides.AI.RequestsPerMinute
		}
	}

	if overrides.Poll != nil {
		override(&c.Poll.Interval, overrides.Poll.Interval)
	}

	if overrides.Log != nil {
		override(&c.Log.Level, overrides.Log.Level)
		override(&c.Log.Format, overrides.Log.Format)
	}
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	c.Backend.URL = expandVars(c.Backend.URL)
	c.AI.Endpoint = expandVars(c.AI.Endpoint)
	c.AI.APIKey = expandVars(c.AI.APIKey)
	c.Viewer.AgentID = expandVars(c.Viewer.AgentID)
	c.Viewer.CompanyID = expandVars(c.Viewer.CompanyID)
	c.Metrics.Listen = expandVars(c.Metrics.Listen)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required"))
	} else if parsed, err := url.Parse(c.Backend.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url %q is not an absolute URL", c.Backend.URL))
	}

	errs = appendDurationError(errs, "backend.timeout", c.Backend.Timeout)
	errs = appendDurationError(errs, "ai.timeout", c.AI.Timeout)
	errs = appendDurationError(errs, "poll.interval", c.Poll.Interval)

	switch c.AI.Provider {
	case ProviderOllama, ProviderOpenAI:
		if c.AI.Endpoint == "" {
			errs = append(errs, fmt.Errorf("ai.endpoint is required for provider %s", c.AI.Provider))
		}
	case ProviderAnthropic, ProviderGemini:
		if c.AI.APIKey == "" {
			errs = append(errs, fmt.Errorf("ai.api_key is required for provider %s", c.AI.Provider))
		}
		if c.AI.Provider == ProviderAnthropic && c.AI.Endpoint == "" {
			errs = append(errs, errors.New("ai.endpoint is required for provider anthropic"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider must be one of: %s, %s, %s, %s",
			ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini))
	}
	if c.AI.Model == "" {
		errs = append(errs, errors.New("ai.model is required"))
	}
	if c.AI.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("ai.requests_per_minute must not be negative"))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	switch c.Viewer.Role {
	case RoleCustomer:
	case RoleSupport:
		if c.Viewer.AgentID == "" {
			errs = append(errs, errors.New("viewer.agent_id is required for the support role"))
		}
	default:
		errs = append(errs, fmt.Errorf("viewer.role must be %s or %s", RoleCustomer, RoleSupport))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func appendDurationError(errs []error, field, value string) []error {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", field, err))
	}
	if duration <= 0 {
		return append(errs, fmt.Errorf("%s must be positive", field))
	}
	return errs
}

// BackendTimeout returns backend.timeout. Call after Validate.
func (c *Config) BackendTimeout() time.Duration { return mustDuration(c.Backend.Timeout) }

// AITimeout returns ai.timeout. Call after Validate.
func (c *Config) AITimeout() time.Duration { return mustDuration(c.AI.Timeout) }

// PollInterval returns poll.interval. Call after Validate.
func (c *Config) PollInterval() time.Duration { return mustDuration(c.Poll.Interval) }

func mustDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		panic("config: duration used before Validate: " + err.Error())
	}
	return duration
}
