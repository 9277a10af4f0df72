package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "jdforge"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultAIProvider     = ProviderOpenAI
	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultAIMode         = ModePrecise
	defaultAIMaxTokens    = 1024
	defaultAITimeout      = 30 * time.Second
	defaultSessionTTL     = 30 * 24 * time.Hour
	defaultLogsSubdir     = "logs"
	envOpenAIKey          = "OPENAI_API_KEY"
	envAnthropicKey       = "ANTHROPIC_API_KEY"
	envJWTSecret          = "JD_JWT_SECRET"
)

// Supported completion providers.
const (
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
	ProviderAnthropic        = "anthropic"
)

// Sampling presets.
const (
	ModePrecise  = "precise"
	ModeCreative = "creative"
)

var defaultAllowedEmailDomains = []string{
	"gmail.com",
	"yahoo.com",
	"outlook.com",
	"hotmail.com",
	"icloud.com",
}
