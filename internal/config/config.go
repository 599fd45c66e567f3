package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "IGLOGIN"
	defaultHTTPAddress  = "0.0.0.0:5000"
	defaultDatabasePath = "instagram_users.db"
	defaultLogLevel     = "info"
	defaultAuthURL      = "https://api.instagram.com/oauth/authorize"
	defaultTokenURL     = "https://api.instagram.com/oauth/access_token"
	defaultGraphURL     = "https://graph.instagram.com"
	defaultHTTPTimeout  = 10
	defaultStateTTL     = 10
)

// AppConfig captures runtime configuration for the login service.
type AppConfig struct {
	HTTPAddress        string
	DatabasePath       string
	LogLevel           string
	InstagramClientID  string
	InstagramSecret    string
	RedirectURI        string
	AuthorizationURL   string
	TokenURL           string
	GraphURL           string
	OutboundTimeout    time.Duration
	StateSigningSecret string
	StateTTL           time.Duration
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
	configViper.SetDefault("instagram.auth_url", defaultAuthURL)
	configViper.SetDefault("instagram.token_url", defaultTokenURL)
	configViper.SetDefault("instagram.graph_url", defaultGraphURL)
	configViper.SetDefault("instagram.timeout_seconds", defaultHTTPTimeout)
	configViper.SetDefault("state.ttl_minutes", defaultStateTTL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		DatabasePath:       configViper.GetString("database.path"),
		LogLevel:           configViper.GetString("log.level"),
		InstagramClientID:  configViper.GetString("instagram.client_id"),
		InstagramSecret:    configViper.GetString("instagram.client_secret"),
		RedirectURI:        configViper.GetString("instagram.redirect_uri"),
		AuthorizationURL:   configViper.GetString("instagram.auth_url"),
		TokenURL:           configViper.GetString("instagram.token_url"),
		GraphURL:           configViper.GetString("instagram.graph_url"),
		OutboundTimeout:    time.Duration(configViper.GetInt("instagram.timeout_seconds")) * time.Second,
		StateSigningSecret: configViper.GetString("state.signing_secret"),
		StateTTL:           time.Duration(configViper.GetInt("state.ttl_minutes")) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.InstagramClientID) == "" {
		return fmt.Errorf("instagram.client_id is required")
	}
	if strings.TrimSpace(c.InstagramSecret) == "" {
		return fmt.Errorf("instagram.client_secret is required")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return fmt.Errorf("instagram.redirect_uri is required")
	}
	if strings.TrimSpace(c.StateSigningSecret) == "" {
		return fmt.Errorf("state.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.OutboundTimeout <= 0 {
		return fmt.Errorf("instagram.timeout_seconds must be positive")
	}
	return nil
}
