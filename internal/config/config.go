package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when no credential for the completion provider is configured.
var ErrMissingAPIKey = errors.New("language model api key is not set")

// ErrMissingJWTSecret is returned outside development when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("jwt secret is not set")

// Load reads the YAML file at configPath and returns the normalized runtime config.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	return Parse(content, path)
}

// Parse decodes YAML content. source is only used in error messages.
func Parse(content []byte, source string) (*AppConfig, error) {
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", source, err)
		}
	}

	cfg := defaultAppConfig()
	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("config %q: %w", source, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", source, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		AI: AIRuntimeConfig{
			Provider:  defaultAIProvider,
			Mode:      defaultAIMode,
			MaxTokens: defaultAIMaxTokens,
			Timeout:   defaultAITimeout,
		},
		Auth: AuthRuntimeConfig{
			AllowedEmailDomains: append([]string(nil), defaultAllowedEmailDomains...),
			SessionTTL:          defaultSessionTTL,
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = strings.TrimSpace(os.Getenv(envJWTSecret))
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}

	ai, err := applyRawAIConfig(cfg.AI, raw.AI)
	if err != nil {
		return err
	}
	cfg.AI = ai

	if raw.Auth.AllowedEmailDomains != nil {
		cfg.Auth.AllowedEmailDomains = normalizeDomains(raw.Auth.AllowedEmailDomains)
	}
	if v := strings.TrimSpace(raw.Auth.SessionTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid auth.session_ttl %q: %w", v, err)
		}
		cfg.Auth.SessionTTL = ttl
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.Env = normalizeEnv(cfg.Env)
	return nil
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current
	db := raw.Database
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		cfg.Host = v
	}
	if db.Port != 0 {
		cfg.Port = db.Port
	}
	if v := strings.TrimSpace(db.User); v != "" {
		cfg.User = v
	}
	if db.Password != "" {
		cfg.Password = db.Password
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		cfg.Charset = v
	}
	if db.ParseTime != nil {
		cfg.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		cfg.Loc = v
	}
	if db.Params != nil {
		cfg.Params = copyStringMap(db.Params)
	}
	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current
	r := raw.Redis
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(r.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		cfg.Host = v
	}
	if r.Port != 0 {
		cfg.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		cfg.Username = v
	}
	if r.Password != "" {
		cfg.Password = r.Password
	}
	if r.DB != nil {
		cfg.DB = *r.DB
	}
	if r.TLS != nil {
		cfg.TLS = *r.TLS
	}
	return normalizeRedisConfig(cfg)
}

func applyRawAIConfig(current AIRuntimeConfig, raw rawAIConfig) (AIRuntimeConfig, error) {
	cfg := current
	if v := strings.TrimSpace(raw.Provider); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(raw.Mode); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if raw.MaxTokens != 0 {
		cfg.MaxTokens = raw.MaxTokens
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid ai.timeout %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	return normalizeAIConfig(cfg), nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderOpenAICompatible, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported ai.provider %q", c.AI.Provider)
	}
	if c.AI.Provider == ProviderOpenAICompatible && c.AI.Endpoint == "" {
		return fmt.Errorf("ai.endpoint is required for provider %q", c.AI.Provider)
	}
	switch c.AI.Mode {
	case ModePrecise, ModeCreative:
	default:
		return fmt.Errorf("unsupported ai.mode %q, expected %q or %q", c.AI.Mode, ModePrecise, ModeCreative)
	}
	if c.AI.MaxTokens < 1 {
		return fmt.Errorf("invalid ai.max_tokens %d, expected >= 1", c.AI.MaxTokens)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("invalid ai.timeout %s, expected > 0", c.AI.Timeout)
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("%w: set ai.api_key or %s", ErrMissingAPIKey, apiKeyEnv(c.AI.Provider))
	}
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("%w: set jwt_secret or %s", ErrMissingJWTSecret, envJWTSecret)
	}
	if len(c.Auth.AllowedEmailDomains) == 0 {
		return errors.New("auth.allowed_email_domains must not be empty")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("invalid auth.session_ttl %s, expected > 0", c.Auth.SessionTTL)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// LogDir returns the absolute directory for daily log files.
func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Paths.Logs, defaultLogsSubdir)
}

func apiKeyEnv(provider string) string {
	if provider == ProviderAnthropic {
		return envAnthropicKey
	}
	return envOpenAIKey
}
