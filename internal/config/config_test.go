package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
session_key: "0123456789abcdef0123456789abcdef"
server_url: "https://blog.example.com/"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Listen)
	assert.Equal(t, "https://blog.example.com", cfg.ServerURL)
	assert.Equal(t, 3600, cfg.SessionMaxAge)
	assert.Equal(t, "Hex Blog", cfg.TOTPIssuer)
	assert.Equal(t, "./data/hexblog.db", cfg.Database.Path)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.False(t, cfg.Email.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `session_key: "from-file-from-file-from-file-xx"`)
	t.Setenv("HEXBLOG_SITE_NAME", "Env Blog")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Env Blog", cfg.SiteName)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SessionKey:    "secret",
			SessionMaxAge: 3600,
			Database:      &DatabaseConfig{Path: "blog.db"},
			Cache:         &CacheConfig{Type: CacheTypeMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing session key",
			mutate:  func(c *Config) { c.SessionKey = "" },
			wantErr: "session key is required",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path is required",
		},
		{
			name:    "redis without url",
			mutate:  func(c *Config) { c.Cache.Type = CacheTypeRedis },
			wantErr: "Redis URL is required",
		},
		{
			name:    "unknown cache type",
			mutate:  func(c *Config) { c.Cache.Type = "memcached" },
			wantErr: "unknown cache type",
		},
		{
			name: "email without host",
			mutate: func(c *Config) {
				c.Email = &EmailConfig{Enabled: true, FromEmail: "blog@example.com"}
			},
			wantErr: "SMTP host is required",
		},
		{
			name: "invalid gravatar rating",
			mutate: func(c *Config) {
				c.Gravatar = &GravatarConfig{Enabled: true, Rating: "nc17"}
			},
			wantErr: "invalid gravatar rating",
		},
		{
			name: "rate limit without window",
			mutate: func(c *Config) {
				c.RateLimit = &RateLimitConfig{Enabled: true, Requests: 5}
			},
			wantErr: "rate limit requests and window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateConfig_DefaultsCache(t *testing.T) {
	c := &Config{
		SessionKey:    "secret",
		SessionMaxAge: 60,
		Database:      &DatabaseConfig{Path: "blog.db"},
	}
	require.NoError(t, validateConfig(c))
	require.NotNil(t, c.Cache)
	assert.Equal(t, CacheTypeMemory, c.Cache.Type)
}
