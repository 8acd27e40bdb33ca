package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	OllamaBaseURL       string              `mapstructure:"ollama_base_url"`
	Model               string              `mapstructure:"model"`
	EmbeddingModel      string              `mapstructure:"embedding_model"`
	DataDir             string              `mapstructure:"data_dir"`
	CacheTTL            time.Duration       `mapstructure:"cache_ttl"`
	DefaultNTickets     int                 `mapstructure:"default_n_tickets"`
	DefaultNGuides      int                 `mapstructure:"default_n_guides"`
	GenerateTimeout     time.Duration       `mapstructure:"generate_timeout"`
	MaxContextChars     int                 `mapstructure:"max_context_chars"`
	NumCtx              int                 `mapstructure:"num_ctx"`
	LogLevel            string              `mapstructure:"log_level"`
	LogFile             string              `mapstructure:"log_file"`
	GeminiAPIKeys       []string            `mapstructure:"gemini_api_keys"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("port", "8080")
	v.SetDefault("ollama_base_url", "http://localhost:11434")
	v.SetDefault("model", "gemma2:2b")
	v.SetDefault("embedding_model", "all-mpnet-base-v2")
	v.SetDefault("data_dir", "data")
	v.SetDefault("cache_ttl", 24*time.Hour)
	v.SetDefault("default_n_tickets", 3)
	v.SetDefault("default_n_guides", 3)
	v.SetDefault("generate_timeout", 120*time.Second)
	v.SetDefault("max_context_chars", 8000)
	v.SetDefault("num_ctx", 1024)
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("ollama_base_url", "OLLAMA_BASE_URL")
	v.BindEnv("model", "OLLAMA_MODEL")
	v.BindEnv("embedding_model", "EMBEDDING_MODEL")
	v.BindEnv("log_level", "LOG_LEVEL")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
