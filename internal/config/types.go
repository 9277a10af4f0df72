package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	DSN            string // MySQL DSN
	RedisURL       string
	Database       DatabaseRuntimeConfig
	Redis          RedisRuntimeConfig
	Paths          RuntimePathsConfig
	AllowedOrigins []string
	JWTSecret      string
	Timezone       string
	AI             AIRuntimeConfig
	Auth           AuthRuntimeConfig
}

type DatabaseRuntimeConfig struct {
	DSN       string
	Host      string
	Port      int
	User      string
	Password  string
	Name      string
	Charset   string
	ParseTime bool
	Loc       string
	Params    map[string]string
}

type RedisRuntimeConfig struct {
	URL      string
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	TLS      bool
}

type RuntimePathsConfig struct {
	Logs string
}

// AIRuntimeConfig selects and tunes the completion provider.
type AIRuntimeConfig struct {
	Provider  string
	APIKey    string
	Endpoint  string
	Model     string
	Mode      string
	MaxTokens int
	Timeout   time.Duration
}

type AuthRuntimeConfig struct {
	AllowedEmailDomains []string
	SessionTTL          time.Duration
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"`
	DSN            string            `yaml:"dsn"`
	RedisURL       string            `yaml:"redis_url"`
	Database       rawDatabaseConfig `yaml:"database"`
	Redis          rawRedisConfig    `yaml:"redis"`
	Paths          rawPathsConfig    `yaml:"paths"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	JWTSecret      string            `yaml:"jwt_secret"`
	Timezone       string            `yaml:"timezone"`
	AI             rawAIConfig       `yaml:"ai"`
	Auth           rawAuthConfig     `yaml:"auth"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawAIConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	Mode      string `yaml:"mode"`
	MaxTokens int    `yaml:"max_tokens"`
	Timeout   string `yaml:"timeout"`
}

type rawAuthConfig struct {
	AllowedEmailDomains []string `yaml:"allowed_email_domains"`
	SessionTTL          string   `yaml:"session_ttl"`
}
