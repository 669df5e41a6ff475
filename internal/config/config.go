package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the service.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Selector  SelectorConfig  `mapstructure:"selector"`
	Locale    LocaleConfig    `mapstructure:"locale"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Log       LogConfig       `mapstructure:"log"`
}

// LLMConfig configures the chat completion provider.
type LLMConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // seconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// EmbeddingConfig configures the embeddings provider used by the semantic
// strategy retriever.
type EmbeddingConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	CacheSize int    `mapstructure:"cache_size"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	EnableCORS bool   `mapstructure:"cors"`
}

// CatalogConfig points at an external strategy catalog. Empty path means the
// embedded default catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// SelectorConfig picks the strategy ranking policy: "rules" (deterministic
// quadrant matching) or "semantic" (embedding similarity). The mode is fixed
// at startup and never switched mid-session.
type SelectorConfig struct {
	Mode string `mapstructure:"mode"`
}

// LocaleConfig sets the default locale for sessions that do not send one.
type LocaleConfig struct {
	Default string `mapstructure:"default"`
}

// SessionsConfig configures session persistence.
type SessionsConfig struct {
	// Backend is "memory", "file" or "sqlite".
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// LogConfig configures the component logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration in layers: defaults, then a config file
// (./flou.yaml or ~/.flou/config.yaml), then FLOU_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.cache_size", 4096)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors", true)
	v.SetDefault("selector.mode", "rules")
	v.SetDefault("locale.default", "es")
	v.SetDefault("sessions.backend", "memory")
	v.SetDefault("sessions.dir", "~/.flou/sessions")
	v.SetDefault("log.level", "info")

	v.SetConfigName("flou")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".flou"))
	}

	v.SetEnvPrefix("FLOU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Sessions.Dir = expandHome(cfg.Sessions.Dir)
	cfg.Catalog.Path = expandHome(cfg.Catalog.Path)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Selector.Mode {
	case "rules", "semantic":
	default:
		return fmt.Errorf("selector.mode must be \"rules\" or \"semantic\", got %q", c.Selector.Mode)
	}
	switch c.Sessions.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("sessions.backend must be \"memory\", \"file\" or \"sqlite\", got %q", c.Sessions.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
