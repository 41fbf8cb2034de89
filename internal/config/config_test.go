package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 0.85, cfg.Registry.Threshold)
	require.Equal(t, 0.3, cfg.News.Threshold)
	require.Equal(t, 0.3, cfg.Social.Threshold)
	require.Equal(t, 86400, cfg.Cache.TTLSeconds)
	require.Equal(t, ".cache", cfg.Cache.Dir)
	require.Equal(t, 100, cfg.RateLimit.RequestsPerPeriod)
	require.Equal(t, 3, cfg.Retry.MaxRetries)
	require.Len(t, cfg.Social.Sources, 8)
	require.Len(t, cfg.Registry.Sources, 6)
	require.Len(t, cfg.News.Sources, 5)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
logging:
  level: debug
cache:
  enabled: false
  ttl: 60
registry:
  threshold: 0.9
  sources:
    - name: ofac
      scanner: sanctions_list
      apiUrl: http://localhost:9000
      searchEndpoint: /search
apiKeys:
  opensanctions: secret
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := Load(path)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.False(t, cfg.Cache.IsEnabled())
	require.Equal(t, 60, cfg.Cache.TTLSeconds)
	require.Equal(t, 0.9, cfg.Registry.Threshold)
	require.Len(t, cfg.Registry.Sources, 1)
	require.Equal(t, "http://localhost:9000/search", cfg.Registry.Sources[0].Endpoint())
	require.Equal(t, "secret", cfg.APIKeys["opensanctions"])
	// untouched sections keep their defaults
	require.Len(t, cfg.News.Sources, 5)
	require.Equal(t, 3, cfg.Retry.MaxRetries)
}

func TestLoadKeepsExplicitZeroes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
retry:
  maxRetries: 0
news:
  threshold: 0
registry:
  timeframeDays: 7
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := Load(path)

	require.Zero(t, cfg.Retry.MaxRetries)
	require.Equal(t, 1.0, cfg.Retry.InitialBackoff)
	require.Zero(t, cfg.News.Threshold)
	require.Equal(t, 0.85, cfg.Registry.Threshold, "absent threshold keeps the default")
	require.Equal(t, 0.3, cfg.Social.Threshold)
	require.NoError(t, cfg.Validate())
}

func TestLoadFallsBackOnMissingFile(t *testing.T) {
	t.Parallel()

	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Equal(t, 100, cfg.RateLimit.RequestsPerPeriod)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.applyEnvOverrides([]string{
		"OPENAI_API_KEY=sk-test",
		"DATABASE_DSN=postgres://db",
		"PERSONINTEL_KEY_BING_API_KEY=bing",
		"PERSONINTEL_API_KEY=server",
		"UNRELATED=1",
		"REDIS_URL=",
	})

	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, "postgres://db", cfg.Database.DSN)
	require.Equal(t, "bing", cfg.APIKeys["bing_api_key"])
	require.Equal(t, "server", cfg.Server.APIKey)
	require.Empty(t, cfg.Cache.RedisURL)

	bing := cfg.News.Sources[1]
	require.Equal(t, "bing", cfg.APIKey(bing))
}

func TestValidateRejectsBrokenSettings(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.RateLimit.RequestsPerPeriod = 0
	cfg.Cache.Backend = "redis"
	cfg.News.Sources = append(cfg.News.Sources, cfg.News.Sources[0])

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "requestsPerPeriod")
	require.Contains(t, err.Error(), "redisUrl")
	require.Contains(t, err.Error(), "declared twice")
}

func TestSourceDefaults(t *testing.T) {
	t.Parallel()

	src := SourceConfig{Name: "ofac"}
	require.True(t, src.IsEnabled())
	require.Equal(t, "ofac", src.KeyName())
	require.Equal(t, 30.0, src.Timeout().Seconds())

	off := false
	src.Enabled = &off
	require.False(t, src.IsEnabled())
}
