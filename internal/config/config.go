// Package config loads toolkit configuration from an optional YAML file
// layered under STORYCORPUS_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	CorpusRoot string         `koanf:"corpus_root"`
	CacheRoot  string         `koanf:"cache_root"`
	OpenAI     OpenAIConfig   `koanf:"openai"`
	HTTP       HTTPConfig     `koanf:"http"`
	Pipeline   PipelineConfig `koanf:"pipeline"`
}

type OpenAIConfig struct {
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
}

type HTTPConfig struct {
	Timeout   string `koanf:"timeout"`
	UserAgent string `koanf:"user_agent"`
}

type PipelineConfig struct {
	RetryDelay string `koanf:"retry_delay"`
}

// DefaultUserAgent identifies the toolkit to Gutenberg mirrors; some of
// them reject requests with no User-Agent.
const DefaultUserAgent = "storycorpus/1.0 (+https://github.com/storycorpus/storycorpus)"

// Load reads configuration. A YAML file at path is loaded first when it
// exists; environment variables prefixed STORYCORPUS_ override it
// (STORYCORPUS_OPENAI__API_KEY -> openai.api_key). Pass an empty path to
// use environment and defaults only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// Double underscore separates nesting levels so keys like
	// corpus_root survive: STORYCORPUS_OPENAI__API_KEY -> openai.api_key.
	if err := k.Load(env.Provider("STORYCORPUS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STORYCORPUS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}

	defaults := map[string]any{
		"corpus_root":          "corpora",
		"cache_root":           "data/cache",
		"openai.base_url":      "https://api.openai.com/v1",
		"openai.model":         "gpt-4o",
		"openai.temperature":   0.2,
		"http.timeout":         "30s",
		"http.user_agent":      DefaultUserAgent,
		"pipeline.retry_delay": "500ms",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The conventional OPENAI_API_KEY still works as a fallback.
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &cfg, nil
}

// HTTPTimeout parses the configured timeout, defaulting to 30s on error.
func (c *Config) HTTPTimeout() time.Duration {
	return parseDuration(c.HTTP.Timeout, 30*time.Second)
}

// RetryDelay parses the configured pipeline retry delay, defaulting to
// 500ms on error.
func (c *Config) RetryDelay() time.Duration {
	return parseDuration(c.Pipeline.RetryDelay, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
