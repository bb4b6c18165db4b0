// Package config loads vidlingo settings from a config file, a .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "VIDLINGO"

type Config struct {
	YouTube    YouTubeConfig    `mapstructure:"youtube"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Google     GoogleConfig     `mapstructure:"google"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	MyMemory   MyMemoryConfig   `mapstructure:"mymemory"`
	Systran    SystranConfig    `mapstructure:"systran"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Log        LogConfig        `mapstructure:"log"`
}

type YouTubeConfig struct {
	APIKey   string `mapstructure:"api_key"`
	PageSize int    `mapstructure:"page_size"`
}

type TranslatorConfig struct {
	Provider  string  `mapstructure:"provider"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GoogleConfig struct {
	Credentials string `mapstructure:"credentials"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type OpenRouterConfig struct {
	APIKey string   `mapstructure:"api_key"`
	URL    string   `mapstructure:"url"`
	Models []string `mapstructure:"models"`
}

type MyMemoryConfig struct {
	URL   string `mapstructure:"url"`
	Email string `mapstructure:"email"`
}

type SystranConfig struct {
	APIKey string `mapstructure:"api_key"`
	URL    string `mapstructure:"url"`
}

type QuotaConfig struct {
	FreeSearches int `mapstructure:"free_searches"`
}

type TimeoutsConfig struct {
	Provider time.Duration `mapstructure:"provider"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("missing configuration: %s", e.Key)
}

// Load reads configuration into the global viper instance, which is where
// command-line flags are bound.
func Load(path string) (*Config, error) {
	return FromViper(viper.GetViper(), path)
}

// FromViper reads configuration into v. path names an explicit config file;
// when empty, ./vidlingo.{yaml,toml,json} is used if present.
func FromViper(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindAliases(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("vidlingo")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.page_size", 15)
	v.SetDefault("translator.provider", "gemini")
	v.SetDefault("translator.rate_limit", 0.0)
	v.SetDefault("translator.burst", 1)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("google.credentials", "")
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2")
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.url", "")
	v.SetDefault("openrouter.models", []string{})
	v.SetDefault("mymemory.url", "")
	v.SetDefault("mymemory.email", "")
	v.SetDefault("systran.api_key", "")
	v.SetDefault("systran.url", "")
	v.SetDefault("quota.free_searches", 5)
	v.SetDefault("timeouts.provider", 10*time.Second)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// bindAliases accepts the environment names the hosted app was deployed with.
func bindAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"youtube.api_key":    {"VIDLINGO_YOUTUBE_API_KEY", "YOUTUBE_API_KEY"},
		"gemini.api_key":     {"VIDLINGO_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"},
		"google.credentials": {"VIDLINGO_GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS"},
		"openrouter.api_key": {"VIDLINGO_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"},
		"systran.api_key":    {"VIDLINGO_SYSTRAN_API_KEY", "SYSTRAN_API_KEY"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Translator.Provider = strings.ToLower(strings.TrimSpace(c.Translator.Provider))
	if c.YouTube.PageSize <= 0 {
		c.YouTube.PageSize = 15
	}
	if c.Quota.FreeSearches < 0 {
		c.Quota.FreeSearches = 0
	}
	if c.Timeouts.Provider <= 0 {
		c.Timeouts.Provider = 10 * time.Second
	}
}

// ValidateSearch checks the video search provider can be built.
func (c *Config) ValidateSearch() error {
	if c.YouTube.APIKey == "" {
		return &ConfigurationError{Key: "youtube.api_key"}
	}
	return nil
}

// ValidateTranslator checks the selected translation provider can be built.
func (c *Config) ValidateTranslator() error {
	switch c.Translator.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return &ConfigurationError{Key: "gemini.api_key"}
		}
	case "google":
		// empty credentials fall back to application default credentials
	case "ollama":
		if c.Ollama.URL == "" {
			return &ConfigurationError{Key: "ollama.url"}
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return &ConfigurationError{Key: "openrouter.api_key"}
		}
	case "mymemory":
		// anonymous use is rate limited but allowed
	case "systran":
		if c.Systran.APIKey == "" {
			return &ConfigurationError{Key: "systran.api_key"}
		}
	default:
		return &ConfigurationError{
			Key:    "translator.provider",
			Reason: fmt.Sprintf("unknown provider %q (want gemini, google, ollama, openrouter, mymemory or systran)", c.Translator.Provider),
		}
	}
	return nil
}
