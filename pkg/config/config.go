package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig                 `json:"app" mapstructure:"app"`
	Gateways   map[string]GatewayConfig  `json:"gateways" mapstructure:"gateways"`
	Providers  map[string]ProviderConfig `json:"providers" mapstructure:"providers"`
	Generation GenerationConfig          `json:"generation" mapstructure:"generation"`
	Server     ServerConfig              `json:"server" mapstructure:"server"`
	Memory     MemoryConfig              `json:"memory" mapstructure:"memory"`
	Log        LogConfig                 `json:"log" mapstructure:"log"`
	Dataset    DatasetConfig             `json:"dataset" mapstructure:"dataset"`
}

type AppConfig struct {
	Name       string `json:"name" mapstructure:"name"`
	OutputFile string `json:"output_file" mapstructure:"output_file"`
	Prompts    string `json:"prompts" mapstructure:"prompts"` // optional prompts.yaml override
}

type GatewayConfig struct {
	Token   string `json:"token" mapstructure:"token"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	Model   string `json:"model" mapstructure:"model"`
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

// GenerationConfig holds the sampling parameters handed to the model.
type GenerationConfig struct {
	MaxNewTokens  int     `json:"max_new_tokens" mapstructure:"max_new_tokens"`
	Temperature   float64 `json:"temperature" mapstructure:"temperature"`
	TopP          float64 `json:"top_p" mapstructure:"top_p"`
	MaxInputChars int     `json:"max_input_chars" mapstructure:"max_input_chars"`
}

type ServerConfig struct {
	Addr        string `json:"addr" mapstructure:"addr"`
	MaxUploadMB int64  `json:"max_upload_mb" mapstructure:"max_upload_mb"`
}

type MemoryConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
	LLMLog string `json:"llm_log" mapstructure:"llm_log"`
}

type DatasetConfig struct {
	OutDir   string `json:"out_dir" mapstructure:"out_dir"`
	Limit    int    `json:"limit" mapstructure:"limit"`
	Primary  string `json:"primary" mapstructure:"primary"`
	Fallback string `json:"fallback" mapstructure:"fallback"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "papersum")
	v.SetDefault("app.output_file", "summary_output.txt")

	v.SetDefault("providers.ollama.model", "phi")
	v.SetDefault("providers.ollama.base_url", "http://localhost:11434")
	v.SetDefault("providers.ollama.enabled", true)

	v.SetDefault("generation.max_new_tokens", 250)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.top_p", 0.9)
	v.SetDefault("generation.max_input_chars", 2000)

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.max_upload_mb", 50)

	v.SetDefault("memory.path", "papersum.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("log.llm_log", "logs/llm.jsonl")

	v.SetDefault("dataset.out_dir", "data")
	v.SetDefault("dataset.limit", 1000)
	v.SetDefault("dataset.primary", "ccdv/arxiv-summarization")
	v.SetDefault("dataset.fallback", "EdinburghNLP/xsum")
	v.SetDefault("dataset.endpoint", "https://datasets-server.huggingface.co")
}

// LoadConfig reads path (json or yaml) on top of the built-in defaults.
// A missing file is not an error; PAPERSUM_* environment variables
// override both, e.g. PAPERSUM_SERVER_ADDR.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PAPERSUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// GetDefaultProvider returns the first enabled provider, preferring openai
// when both are on so the choice does not depend on map order.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for _, name := range []string{"openai", "openrouter", "anthropic", "ollama"} {
		if p, ok := c.Providers[name]; ok && p.Enabled {
			return name, p
		}
	}
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled && tg.Token != "" {
		return tg, true
	}
	return GatewayConfig{}, false
}
