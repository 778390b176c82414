package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the RAG service.
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	RAG     RAGConfig     `mapstructure:"rag"`
	Search  SearchConfig  `mapstructure:"search"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Storage StorageConfig `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the LLM/embedding backend configuration. The client is
// OpenAI-compatible; pointing base_url at Groq or another compatible host
// works without code changes.
type LLMConfig struct {
	Type            string        `mapstructure:"type"` // openai, groq
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// RAGConfig contains retrieval and ingestion tunables.
type RAGConfig struct {
	// TopK is the number of chunks requested per retrieval pass.
	TopK int `mapstructure:"top_k"`
	// LowContextThreshold is the mean-relevance floor below which retrieved
	// context is judged insufficient and autonomous ingestion kicks in.
	LowContextThreshold float64 `mapstructure:"low_context_threshold"`
	// ChunkSize is the character budget per stored chunk.
	ChunkSize int `mapstructure:"chunk_size"`
}

// SearchConfig contains the web search providers. Serper is primary; Brave
// is tried when Serper is unconfigured, errors, or yields nothing usable.
type SearchConfig struct {
	SerperAPIKey string `mapstructure:"serper_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
	MaxResults   int    `mapstructure:"max_results"`
}

// FetchConfig contains content fetcher settings.
type FetchConfig struct {
	Fetcher  string        `mapstructure:"fetcher"` // readable or chromedp
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// StorageConfig contains storage backend settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains the pgvector-backed semantic store settings.
type PostgresConfig struct {
	URL                 string `mapstructure:"url"`
	Host                string `mapstructure:"host"`
	Port                string `mapstructure:"port"`
	User                string `mapstructure:"user"`
	Password            string `mapstructure:"password"`
	DBName              string `mapstructure:"dbname"`
	SSLMode             string `mapstructure:"sslmode"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", errors.New("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains the provenance memory backend settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if r.Host == "" {
		return errors.New("storage.redis.host is required")
	}
	return nil
}

// LoadConfig reads configuration from a JSON file plus DOCENT_* environment
// overrides. A missing file is fine (defaults + env apply); a malformed file
// or invalid values are fatal.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.request_timeout", 2*time.Minute)
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.type", "openai")
	viper.SetDefault("llm.completion_model", "gpt-4o-mini")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("rag.top_k", 5)
	viper.SetDefault("rag.low_context_threshold", 0.35)
	viper.SetDefault("rag.chunk_size", 800)
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("fetch.fetcher", "readable")
	viper.SetDefault("fetch.timeout", 15*time.Second)
	viper.SetDefault("fetch.max_chars", 20000)
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.postgres.embedding_dimensions", 1536)
	viper.SetDefault("storage.redis.host", "localhost")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.timeout", 5*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("DOCENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that would otherwise surface as
// confusing runtime behaviour.
func (c *Config) Validate() error {
	if c.RAG.TopK <= 0 {
		return errors.New("rag.top_k must be > 0")
	}
	if c.RAG.LowContextThreshold < 0 || c.RAG.LowContextThreshold > 1 {
		return errors.New("rag.low_context_threshold must be within [0,1]")
	}
	if c.RAG.ChunkSize <= 0 {
		return errors.New("rag.chunk_size must be > 0")
	}
	if c.Fetch.Fetcher != "readable" && c.Fetch.Fetcher != "chromedp" {
		return fmt.Errorf("fetch.fetcher must be readable or chromedp, got %q", c.Fetch.Fetcher)
	}
	return nil
}
