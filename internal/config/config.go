package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "SLIDECRAFT"
	defaultHTTPAddress       = "0.0.0.0:5001"
	defaultDatabasePath      = "slidecraft.db"
	defaultLogLevel          = "info"
	defaultLLMBaseURL        = "http://127.0.0.1:8081"
	defaultLLMTimeoutSeconds = 60
	defaultLLMRequestsPerMin = 30
	defaultAnalyzerBaseURL   = "http://127.0.0.1:8082"
	defaultAnalyzerTimeout   = 120
	defaultConfirmTTLSeconds = 120
	defaultCollationLocale   = "en"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress          string
	DatabasePath         string
	LogLevel             string
	LLMBaseURL           string
	LLMTimeout           time.Duration
	LLMRequestsPerMinute int
	AnalyzerBaseURL      string
	AnalyzerTimeout      time.Duration
	ConfirmSigningSecret string
	ConfirmTTL           time.Duration
	CollationLocale      string
	AllowedOrigins       []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("llm.base_url", defaultLLMBaseURL)
	configViper.SetDefault("llm.timeout_seconds", defaultLLMTimeoutSeconds)
	configViper.SetDefault("llm.requests_per_minute", defaultLLMRequestsPerMin)
	configViper.SetDefault("analyzer.base_url", defaultAnalyzerBaseURL)
	configViper.SetDefault("analyzer.timeout_seconds", defaultAnalyzerTimeout)
	configViper.SetDefault("confirm.ttl_seconds", defaultConfirmTTLSeconds)
	configViper.SetDefault("collation.locale", defaultCollationLocale)
	configViper.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		DatabasePath:         configViper.GetString("database.path"),
		LogLevel:             configViper.GetString("log.level"),
		LLMBaseURL:           configViper.GetString("llm.base_url"),
		LLMTimeout:           time.Duration(configViper.GetInt("llm.timeout_seconds")) * time.Second,
		LLMRequestsPerMinute: configViper.GetInt("llm.requests_per_minute"),
		AnalyzerBaseURL:      configViper.GetString("analyzer.base_url"),
		AnalyzerTimeout:      time.Duration(configViper.GetInt("analyzer.timeout_seconds")) * time.Second,
		ConfirmSigningSecret: configViper.GetString("confirm.signing_secret"),
		ConfirmTTL:           time.Duration(configViper.GetInt("confirm.ttl_seconds")) * time.Second,
		CollationLocale:      configViper.GetString("collation.locale"),
		AllowedOrigins:       configViper.GetStringSlice("cors.allowed_origins"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.ConfirmSigningSecret) == "" {
		return fmt.Errorf("confirm.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.LLMBaseURL) == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if strings.TrimSpace(c.AnalyzerBaseURL) == "" {
		return fmt.Errorf("analyzer.base_url is required")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("llm.timeout_seconds must be positive")
	}
	if c.AnalyzerTimeout <= 0 {
		return fmt.Errorf("analyzer.timeout_seconds must be positive")
	}
	if c.ConfirmTTL <= 0 {
		return fmt.Errorf("confirm.ttl_seconds must be positive")
	}
	if c.LLMRequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative")
	}
	return nil
}
