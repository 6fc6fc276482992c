package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the QA service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	AuthEnabled bool   `mapstructure:"auth_enabled"`
}

func (s ServerConfig) Validate() error {
	if s.AuthEnabled && strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required when auth is enabled")
	}
	return nil
}

// LLMConfig contains generation backend settings
type LLMConfig struct {
	Backend           string        `mapstructure:"backend"` // ollama or openai
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	PreferredModel    string        `mapstructure:"preferred_model"`
	FallbackModels    []string      `mapstructure:"fallback_models"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	FirstTokenTimeout time.Duration `mapstructure:"first_token_timeout"`
}

func (l LLMConfig) Validate() error {
	switch l.Backend {
	case "ollama":
	case "openai":
		if strings.TrimSpace(l.APIKey) == "" {
			return fmt.Errorf("llm.api_key required for the openai backend")
		}
	default:
		return fmt.Errorf("llm.backend must be ollama or openai, got %q", l.Backend)
	}
	if strings.TrimSpace(l.PreferredModel) == "" {
		return fmt.Errorf("llm.preferred_model required")
	}
	return nil
}

// EmbeddingConfig maps each query language onto an embedding model
type EmbeddingConfig struct {
	PrimaryModel string `mapstructure:"primary_model"`
	TargetModel  string `mapstructure:"target_model"`
}

func (e EmbeddingConfig) Validate() error {
	if strings.TrimSpace(e.PrimaryModel) == "" {
		return fmt.Errorf("embedding.primary_model required")
	}
	return nil
}

// CorpusConfig describes the two document collections and their sources
type CorpusConfig struct {
	ReferenceDir   string `mapstructure:"reference_dir"`
	CourseNotesDir string `mapstructure:"course_notes_dir"`
	Hybrid         bool   `mapstructure:"hybrid"`
	RefreshCron    string `mapstructure:"refresh_cron"`
}

// CacheConfig selects and bounds the query cache
type CacheConfig struct {
	Backend  string `mapstructure:"backend"` // memory or redis
	Capacity int    `mapstructure:"capacity"`
}

// Normalize applies defaults for unset cache values.
func (c CacheConfig) Normalize() CacheConfig {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Capacity <= 0 {
		c.Capacity = 100
	}
	return c
}

func (c CacheConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "redis" {
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Backend)
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // memory or postgres
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "", "memory":
		return nil
	case "postgres":
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("storage.backend must be memory or postgres, got %q", s.Backend)
	}
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN assembles the connection string.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr joins host and port.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name

	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("server.auth_enabled", false)
	viper.SetDefault("llm.backend", "ollama")
	viper.SetDefault("llm.base_url", "http://localhost:11434")
	viper.SetDefault("llm.preferred_model", "qwen2:1.5b")
	viper.SetDefault("llm.fallback_models", []string{"llama3.2:1b", "gemma2:2b", "tinyllama"})
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 180)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.first_token_timeout", "25s")
	viper.SetDefault("embedding.primary_model", "nomic-embed-text")
	viper.SetDefault("embedding.target_model", "bangla-bert")
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.capacity", 100)
	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("corpus.hybrid", false)

	if path == "" {
		viper.AddConfigPath("./config") // path to look for the config file in
		viper.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                      // bin/
		viper.AddConfigPath(filepath.Join(exeDir, "..")) // repo root
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("PATHSHALA")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (PATHSHALA_*)

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// unmarshal config
	var config Config

	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Cache = config.Cache.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Embedding.Validate(); err != nil {
		panic(err)
	}
	if err := config.Cache.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Validate(); err != nil {
		panic(err)
	}
	return &config
}
