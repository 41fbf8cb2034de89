package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "PERSONINTEL_CONFIG"
	serverAPIKeyEnv   = "PERSONINTEL_API_KEY"
	sourceKeyEnvPfx   = "PERSONINTEL_KEY_"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Cache backends.
const (
	CacheBadger = "badger"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	UserAgent     string             `yaml:"userAgent"`
	APIKeys       map[string]string  `yaml:"apiKeys"`
	Cache         CacheConfig        `yaml:"cache"`
	RateLimit     RateLimitConfig    `yaml:"rateLimit"`
	Retry         RetryConfig        `yaml:"retry"`
	Social        FamilyConfig       `yaml:"social"`
	Registry      FamilyConfig       `yaml:"registry"`
	News          FamilyConfig       `yaml:"news"`
	LLM           LLMConfig          `yaml:"llm"`
	ML            MLConfig           `yaml:"ml"`
	Database      DatabaseConfig     `yaml:"database"`
	Server        ServerConfig       `yaml:"server"`
	Workflow      WorkflowConfig     `yaml:"workflow"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig controls the response cache shared by all sources.
type CacheConfig struct {
	Enabled         *bool  `yaml:"enabled"`
	TTLSeconds      int    `yaml:"ttl"`
	Dir             string `yaml:"cacheDir"`
	Backend         string `yaml:"backend"`
	RedisURL        string `yaml:"redisUrl"`
	EvictionMinutes int    `yaml:"evictionMinutes"`
}

// IsEnabled defaults to true when unset.
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TTL converts the configured seconds to a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// EvictionInterval is how often expired entries are swept in serve mode.
func (c CacheConfig) EvictionInterval() time.Duration {
	return time.Duration(c.EvictionMinutes) * time.Minute
}

// RateLimitConfig bounds requests per source.
type RateLimitConfig struct {
	RequestsPerPeriod int `yaml:"requestsPerPeriod"`
	PeriodSeconds     int `yaml:"periodSeconds"`
}

// Period converts the configured seconds to a duration.
func (r RateLimitConfig) Period() time.Duration {
	return time.Duration(r.PeriodSeconds) * time.Second
}

// RetryConfig shapes the exponential backoff around source fetches.
type RetryConfig struct {
	MaxRetries     int     `yaml:"maxRetries"`
	InitialBackoff float64 `yaml:"initialBackoff"`
	MaxBackoff     float64 `yaml:"maxBackoff"`
	BackoffFactor  float64 `yaml:"backoffFactor"`

	// maxRetriesSet tells an explicit 0 in YAML apart from an absent key.
	maxRetriesSet bool
}

// UnmarshalYAML records whether maxRetries was present.
func (r *RetryConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain RetryConfig
	var present struct {
		MaxRetries *int `yaml:"maxRetries"`
	}
	if err := node.Decode((*plain)(r)); err != nil {
		return err
	}
	if err := node.Decode(&present); err != nil {
		return err
	}
	r.maxRetriesSet = present.MaxRetries != nil
	return nil
}

// FamilyConfig groups the sources of one family and its acceptance threshold.
type FamilyConfig struct {
	Threshold           float64        `yaml:"threshold"`
	TimeframeDays       int            `yaml:"timeframeDays"`
	MaxResultsPerSource int            `yaml:"maxResultsPerSource"`
	Enrichment          *bool          `yaml:"enrichment"`
	Sources             []SourceConfig `yaml:"sources"`

	thresholdSet bool
}

// UnmarshalYAML records whether threshold was present, so 0 accepts everything.
func (f *FamilyConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain FamilyConfig
	var present struct {
		Threshold *float64 `yaml:"threshold"`
	}
	if err := node.Decode((*plain)(f)); err != nil {
		return err
	}
	if err := node.Decode(&present); err != nil {
		return err
	}
	f.thresholdSet = present.Threshold != nil
	return nil
}

// EnrichmentEnabled defaults to true when unset.
func (f FamilyConfig) EnrichmentEnabled() bool {
	return f.Enrichment == nil || *f.Enrichment
}

// SourceConfig describes a single source with its scanner strategy.
type SourceConfig struct {
	Name               string            `yaml:"name"`
	Scanner            string            `yaml:"scanner"`
	Enabled            *bool             `yaml:"enabled"`
	APIURL             string            `yaml:"apiUrl"`
	SearchEndpoint     string            `yaml:"searchEndpoint"`
	SearchURLTemplate  string            `yaml:"searchUrlTemplate"`
	ProfileURLTemplate string            `yaml:"profileUrlTemplate"`
	RequiresAuth       bool              `yaml:"requiresAuth"`
	APIKeyName         string            `yaml:"apiKeyName"`
	TimeoutSeconds     int               `yaml:"timeout"`
	Options            map[string]string `yaml:"options"`
}

// IsEnabled defaults to true when unset.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Timeout returns the per-request timeout, 30s when unset.
func (s SourceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Endpoint joins the API base URL and search path.
func (s SourceConfig) Endpoint() string {
	return strings.TrimSuffix(s.APIURL, "/") + s.SearchEndpoint
}

// KeyName is the APIKeys entry holding this source's credential.
func (s SourceConfig) KeyName() string {
	if s.APIKeyName != "" {
		return s.APIKeyName
	}
	return s.Name
}

// LLMConfig defines how to contact the OpenAI-compatible text generation API.
type LLMConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"maxTokens"`
	SystemPrompt string  `yaml:"systemPrompt"`
}

// MLConfig describes the optional remote news enrichment service.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// DatabaseConfig describes Postgres connection details for report history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"apiKey"`
}

// WorkflowConfig bounds a single run.
type WorkflowConfig struct {
	TimeoutSeconds int `yaml:"timeout"`
	MaxConcurrent  int `yaml:"maxConcurrent"`
}

// Timeout converts the configured seconds to a duration.
func (w WorkflowConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send risk alerts.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	MinRisk  string `yaml:"minRisk"`
}

// APIKey returns the credential configured for the source, if any.
func (c Config) APIKey(src SourceConfig) string {
	return c.APIKeys[src.KeyName()]
}

// Load reads YAML configuration from path or $PERSONINTEL_CONFIG and applies
// environment overrides. Unreadable files fall back to defaults.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if fileCfg, err := readFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides(os.Environ())
	return cfg
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

// Validate reports settings the pipeline cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.RateLimit.RequestsPerPeriod <= 0 {
		problems = append(problems, "rateLimit.requestsPerPeriod must be positive")
	}
	if c.RateLimit.PeriodSeconds <= 0 {
		problems = append(problems, "rateLimit.periodSeconds must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		problems = append(problems, "retry.maxRetries must not be negative")
	}
	if c.Retry.BackoffFactor < 1 {
		problems = append(problems, "retry.backoffFactor must be at least 1")
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		problems = append(problems, "retry backoff bounds are inconsistent")
	}
	if c.Cache.IsEnabled() {
		switch c.Cache.Backend {
		case CacheBadger, CacheMemory:
		case CacheRedis:
			if c.Cache.RedisURL == "" {
				problems = append(problems, "cache.redisUrl is required for the redis backend")
			}
		default:
			problems = append(problems, fmt.Sprintf("cache.backend %q is not supported", c.Cache.Backend))
		}
	}
	for family, fc := range map[string]FamilyConfig{"social": c.Social, "registry": c.Registry, "news": c.News} {
		if fc.Threshold < 0 || fc.Threshold > 1 {
			problems = append(problems, fmt.Sprintf("%s.threshold must be within [0,1]", family))
		}
		seen := map[string]bool{}
		for _, src := range fc.Sources {
			if src.Name == "" || src.Scanner == "" {
				problems = append(problems, fmt.Sprintf("%s source needs name and scanner", family))
				continue
			}
			if seen[src.Name] {
				problems = append(problems, fmt.Sprintf("%s source %s is declared twice", family, src.Name))
			}
			seen[src.Name] = true
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) applyEnvOverrides(environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		switch key {
		case databaseDSNEnv:
			c.Database.DSN = value
		case redisURLEnv:
			c.Cache.RedisURL = value
		case openAIAPIKeyEnv:
			c.LLM.APIKey = value
		case openAIModelEnv:
			c.LLM.Model = value
		case telegramTokenEnv:
			c.Notifications.Telegram.BotToken = value
		case telegramChatIDEnv:
			c.Notifications.Telegram.ChatID = value
		case serverAPIKeyEnv:
			c.Server.APIKey = value
		case logLevelEnv:
			c.Logging.Level = value
		default:
			if name, found := strings.CutPrefix(key, sourceKeyEnvPfx); found && name != "" {
				if c.APIKeys == nil {
					c.APIKeys = map[string]string{}
				}
				c.APIKeys[strings.ToLower(name)] = value
			}
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	for name, key := range override.APIKeys {
		if base.APIKeys == nil {
			base.APIKeys = map[string]string{}
		}
		base.APIKeys[name] = key
	}

	if override.Cache.Enabled != nil {
		base.Cache.Enabled = override.Cache.Enabled
	}
	if override.Cache.TTLSeconds > 0 {
		base.Cache.TTLSeconds = override.Cache.TTLSeconds
	}
	if override.Cache.Dir != "" {
		base.Cache.Dir = override.Cache.Dir
	}
	if override.Cache.Backend != "" {
		base.Cache.Backend = override.Cache.Backend
	}
	if override.Cache.RedisURL != "" {
		base.Cache.RedisURL = override.Cache.RedisURL
	}
	if override.Cache.EvictionMinutes > 0 {
		base.Cache.EvictionMinutes = override.Cache.EvictionMinutes
	}

	if override.RateLimit.RequestsPerPeriod > 0 {
		base.RateLimit.RequestsPerPeriod = override.RateLimit.RequestsPerPeriod
	}
	if override.RateLimit.PeriodSeconds > 0 {
		base.RateLimit.PeriodSeconds = override.RateLimit.PeriodSeconds
	}

	if override.Retry != (RetryConfig{}) {
		if override.Retry.maxRetriesSet || override.Retry.MaxRetries > 0 {
			base.Retry.MaxRetries = override.Retry.MaxRetries
		}
		if override.Retry.InitialBackoff > 0 {
			base.Retry.InitialBackoff = override.Retry.InitialBackoff
		}
		if override.Retry.MaxBackoff > 0 {
			base.Retry.MaxBackoff = override.Retry.MaxBackoff
		}
		if override.Retry.BackoffFactor > 0 {
			base.Retry.BackoffFactor = override.Retry.BackoffFactor
		}
	}

	base.Social = mergeFamily(base.Social, override.Social)
	base.Registry = mergeFamily(base.Registry, override.Registry)
	base.News = mergeFamily(base.News, override.News)

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}

	if override.ML.InferenceURL != "" {
		base.ML.InferenceURL = override.ML.InferenceURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.APIKey != "" {
		base.Server.APIKey = override.Server.APIKey
	}

	if override.Workflow.TimeoutSeconds > 0 {
		base.Workflow.TimeoutSeconds = override.Workflow.TimeoutSeconds
	}
	if override.Workflow.MaxConcurrent > 0 {
		base.Workflow.MaxConcurrent = override.Workflow.MaxConcurrent
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.MinRisk != "" {
		base.Notifications.Telegram.MinRisk = override.Notifications.Telegram.MinRisk
	}

	return base
}

func mergeFamily(base, override FamilyConfig) FamilyConfig {
	if override.thresholdSet || override.Threshold > 0 {
		base.Threshold = override.Threshold
	}
	if override.TimeframeDays > 0 {
		base.TimeframeDays = override.TimeframeDays
	}
	if override.MaxResultsPerSource > 0 {
		base.MaxResultsPerSource = override.MaxResultsPerSource
	}
	if override.Enrichment != nil {
		base.Enrichment = override.Enrichment
	}
	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	return base
}
