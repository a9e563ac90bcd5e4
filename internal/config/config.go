// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the a2a-agent binary's settings from defaults, an
// optional YAML file, A2A_* environment variables and bound flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the binary reads.
const EnvPrefix = "A2A"

// FileName is the base name of the optional config file.
const FileName = "a2a-agent"

// LLM providers.
const (
	ProviderEcho      = "echo"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the complete binary configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Agent  AgentConfig  `mapstructure:"agent" yaml:"agent"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Client ClientConfig `mapstructure:"client" yaml:"client"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" yaml:"addr"`
	BasePath    string        `mapstructure:"base_path" yaml:"base_path"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MetricsPath string        `mapstructure:"metrics_path" yaml:"metrics_path"`
	H2C         bool          `mapstructure:"h2c" yaml:"h2c"`
}

// AgentConfig describes the served agent card.
type AgentConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`
	Version     string `mapstructure:"version" yaml:"version"`
	URL         string `mapstructure:"url" yaml:"url,omitempty"`
	Streaming   bool   `mapstructure:"streaming" yaml:"streaming"`
}

// LLMConfig selects the generator behind the ai-analyze skill.
type LLMConfig struct {
	Provider     string  `mapstructure:"provider" yaml:"provider"`
	Model        string  `mapstructure:"model" yaml:"model,omitempty"`
	APIKey       string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL      string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens    int64   `mapstructure:"max_tokens" yaml:"max_tokens"`
	SystemPrompt string  `mapstructure:"system_prompt" yaml:"system_prompt"`
}

// ClientConfig configures the send and card commands.
type ClientConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Token   string        `mapstructure:"token" yaml:"token,omitempty"`
}

// LogConfig configures the process-wide slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]any{
	"server.addr":         ":8080",
	"server.base_path":    "/a2a",
	"server.timeout":      30 * time.Second,
	"server.metrics_path": "/metrics",
	"server.h2c":          true,

	"agent.name":        "A2A Demo Agent",
	"agent.description": "Echoes, transforms and analyzes text over the A2A protocol",
	"agent.version":     "1.0.0",
	"agent.url":         "",
	"agent.streaming":   true,

	"llm.provider":      ProviderEcho,
	"llm.model":         "",
	"llm.api_key":       "",
	"llm.base_url":      "",
	"llm.temperature":   0.7,
	"llm.max_tokens":    1024,
	"llm.system_prompt": "You are a concise analyst. Summarize and analyze the user's text.",

	"client.url":     "http://localhost:8080",
	"client.timeout": 30 * time.Second,
	"client.token":   "",

	"log.level":  "info",
	"log.format": "text",
}

// SetDefaults registers every known key on v so that environment variables
// and Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads the configuration into a [Config]. file names an explicit
// config file; when empty, a2a-agent.yaml is looked up in the working
// directory and its absence is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path %q must start with /", c.Server.BasePath))
	}
	if c.Server.Timeout < 0 || c.Client.Timeout < 0 {
		errs = append(errs, errors.New("timeouts cannot be negative"))
	}
	if c.Agent.Name == "" || c.Agent.Version == "" {
		errs = append(errs, errors.New("agent.name and agent.version are required"))
	}
	switch c.LLM.Provider {
	case ProviderEcho, ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy of c with secrets masked.
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "****"
	}
	if c.Client.Token != "" {
		c.Client.Token = "****"
	}
	return c
}

// WriteYAML renders c as YAML.
func (c Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func (c LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", c.Level, err)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to w in the configured format and level.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if c.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
