package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of finlens.
type Config struct {
	Logging    LoggingConfig
	Menu       MenuConfig
	Database   DatabaseConfig
	Dictionary DictionaryConfig
	FinBERT    FinBERTConfig
	LLM        LLMConfig
	Server     ServerConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string
	CertFile       string
	KeyFile        string
	CertDir        string
	CORSOrigins    []string
	Port           int
	RequestTimeout time.Duration
	TLS            bool
	SelfSigned     bool
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FinBERTConfig configures the local sequence-classification model server.
type FinBERTConfig struct {
	URL       string
	Model     string
	Threshold float64
	Timeout   time.Duration
}

// DictionaryConfig configures where dictionary entries come from.
type DictionaryConfig struct {
	Source           string
	Path             string
	TermColumn       string
	DefinitionColumn string
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string
}

// MenuConfig configures the banking menu tree.
type MenuConfig struct {
	Path string
}

// LLMConfig configures the generative model and its plumbing.
type LLMConfig struct {
	Provider   string
	APIKey     string
	Model      string
	Language   string
	Cache      CacheConfig
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  int
}

// CacheConfig configures the LLM response cache.
type CacheConfig struct {
	Backend   string
	RedisAddr string
	TTL       time.Duration
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// Dictionary sources.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// envAliases maps config keys to the environment variable names the service
// has always honored, so existing deployments keep working.
var envAliases = map[string][]string{
	"finbert.model":     {"MODEL_PATH"},
	"finbert.threshold": {"THRESHOLD"},
	"dictionary.path":   {"FIN_TERMS_PATH"},
	"llm.api_key":       {"GEMINI_KEY", "GEMINI_API_KEY"},
	"llm.model":         {"LLM_MODEL"},
	"server.cert_file":  {"SSL_CERT"},
	"server.key_file":   {"SSL_KEY"},
	"server.tls":        {"USE_SSL"},
	"server.host":       {"HOST"},
	"server.port":       {"PORT"},
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.tls", true)
	v.SetDefault("server.cert_file", "cert.pem")
	v.SetDefault("server.key_file", "key.pem")
	v.SetDefault("server.self_signed", false)
	v.SetDefault("server.cert_dir", "~/.config/finlens/certs")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", time.Duration(0))

	v.SetDefault("finbert.url", "http://localhost:8080")
	v.SetDefault("finbert.model", "PhoenixPlanet/fin_bert")
	v.SetDefault("finbert.threshold", 0.42)
	v.SetDefault("finbert.timeout", 30*time.Second)

	v.SetDefault("dictionary.source", SourceCSV)
	v.SetDefault("dictionary.path", "fin_terms.csv")
	v.SetDefault("dictionary.term_column", "용어")
	v.SetDefault("dictionary.definition_column", "설명")

	v.SetDefault("database.path", "~/.local/share/finlens/finlens.db")
	v.SetDefault("menu.path", "menu.json")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.language", "Korean")
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.rate_limit", 600)
	v.SetDefault("llm.cache.backend", "memory")
	v.SetDefault("llm.cache.ttl", time.Hour)
	v.SetDefault("llm.cache.redis_addr", "localhost:6379")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("FINLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range envAliases {
		prefixed := "FINLENS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
}

// Load reads a validated Config out of v. SetDefaults must have been applied.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			TLS:            v.GetBool("server.tls"),
			CertFile:       ExpandPath(v.GetString("server.cert_file")),
			KeyFile:        ExpandPath(v.GetString("server.key_file")),
			SelfSigned:     v.GetBool("server.self_signed"),
			CertDir:        ExpandPath(v.GetString("server.cert_dir")),
			CORSOrigins:    v.GetStringSlice("server.cors_origins"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		FinBERT: FinBERTConfig{
			URL:       strings.TrimRight(v.GetString("finbert.url"), "/"),
			Model:     v.GetString("finbert.model"),
			Threshold: v.GetFloat64("finbert.threshold"),
			Timeout:   v.GetDuration("finbert.timeout"),
		},
		Dictionary: DictionaryConfig{
			Source:           strings.ToLower(v.GetString("dictionary.source")),
			Path:             ExpandPath(v.GetString("dictionary.path")),
			TermColumn:       v.GetString("dictionary.term_column"),
			DefinitionColumn: v.GetString("dictionary.definition_column"),
		},
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Menu: MenuConfig{
			Path: ExpandPath(v.GetString("menu.path")),
		},
		LLM: LLMConfig{
			Provider:   strings.ToLower(v.GetString("llm.provider")),
			APIKey:     v.GetString("llm.api_key"),
			Model:      v.GetString("llm.model"),
			Language:   v.GetString("llm.language"),
			MaxRetries: v.GetInt("llm.max_retries"),
			RetryDelay: v.GetDuration("llm.retry_delay"),
			RateLimit:  v.GetInt("llm.rate_limit"),
			Cache: CacheConfig{
				Backend:   strings.ToLower(v.GetString("llm.cache.backend")),
				TTL:       v.GetDuration("llm.cache.ttl"),
				RedisAddr: v.GetString("llm.cache.redis_addr"),
			},
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations. It does not require the LLM
// API key; commands that talk to the LLM check that themselves.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", common.ErrInvalidConfig, c.Server.Port)
	}
	if c.FinBERT.Threshold < 0 || c.FinBERT.Threshold > 1 {
		return fmt.Errorf("%w: finbert.threshold must be within [0, 1], got %v", common.ErrInvalidConfig, c.FinBERT.Threshold)
	}
	switch c.Dictionary.Source {
	case SourceCSV, SourceSQLite:
	default:
		return fmt.Errorf("%w: dictionary.source must be %q or %q, got %q", common.ErrInvalidConfig, SourceCSV, SourceSQLite, c.Dictionary.Source)
	}
	switch c.LLM.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("%w: llm.cache.backend must be memory, redis or none, got %q", common.ErrInvalidConfig, c.LLM.Cache.Backend)
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("%w: llm.max_retries must be at least 1", common.ErrInvalidConfig)
	}
	return nil
}

// RequireLLM reports a missing API key.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("%w: llm.api_key (or GEMINI_KEY) is required", common.ErrMissingConfig)
	}
	return nil
}
