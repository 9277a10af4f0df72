package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv(envOpenAIKey, "sk-test")

	cfg, err := Parse(nil, "inline")
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.Model)
	assert.Equal(t, ModePrecise, cfg.AI.Mode)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, []string{"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "icloud.com"}, cfg.Auth.AllowedEmailDomains)
	assert.Equal(t, "root:password@tcp(127.0.0.1:3306)/jdforge?charset=utf8mb4&loc=Local&parseTime=true", cfg.DSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestParseMissingAPIKeyFails(t *testing.T) {
	t.Setenv(envOpenAIKey, "")

	_, err := Parse([]byte("port: 9000\n"), "inline")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestParseRequiresJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv(envOpenAIKey, "sk-test")
	t.Setenv(envJWTSecret, "")

	_, err := Parse([]byte("env: production\n"), "inline")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
	assert.Contains(t, err.Error(), envJWTSecret)

	t.Setenv(envJWTSecret, "from-env")
	cfg, err := Parse([]byte("env: production\n"), "inline")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)

	t.Setenv(envJWTSecret, "")
	cfg, err = Parse(nil, "inline")
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret)
}

func TestParseAnthropicUsesItsOwnEnvKey(t *testing.T) {
	t.Setenv(envOpenAIKey, "")
	t.Setenv(envAnthropicKey, "ant-key")

	cfg, err := Parse([]byte("ai:\n  provider: Anthropic\n"), "inline")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, "ant-key", cfg.AI.APIKey)
	assert.Equal(t, defaultAnthropicModel, cfg.AI.Model)
}

func TestParseOverrides(t *testing.T) {
	content := []byte(`
port: 9100
env: prod
dsn: "u:p@tcp(db:3306)/jd?parseTime=true"
redis:
  url: "cache:6380/2"
jwt_secret: s3cret
ai:
  api_key: inline-key
  mode: creative
  max_tokens: 300
  timeout: 5s
auth:
  session_ttl: 2h
  allowed_email_domains: ["  Example.COM ", "@corp.io", "example.com", ""]
`)
	cfg, err := Parse(content, "inline")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "u:p@tcp(db:3306)/jd?parseTime=true", cfg.DSN)
	assert.Equal(t, "redis://cache:6380/2", cfg.RedisURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "inline-key", cfg.AI.APIKey)
	assert.Equal(t, ModeCreative, cfg.AI.Mode)
	assert.Equal(t, 300, cfg.AI.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, []string{"example.com", "corp.io"}, cfg.Auth.AllowedEmailDomains)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	t.Setenv(envOpenAIKey, "sk-test")

	cases := map[string]string{
		"unknown field":        "nope: 1\n",
		"bad port":             "port: 70000\n",
		"bad provider":         "ai:\n  provider: cohere\n",
		"bad mode":             "ai:\n  mode: wild\n",
		"bad timeout":          "ai:\n  timeout: soon\n",
		"compatible no url":    "ai:\n  provider: openai-compatible\n",
		"empty domain list":    "auth:\n  allowed_email_domains: []\n",
		"negative session ttl": "auth:\n  session_ttl: -1h\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content), "inline")
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	t.Setenv(envOpenAIKey, "sk-test")

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8123\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
