package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
	MarketData  MarketDataConfig `toml:"marketdata"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Chat        ChatConfig       `toml:"chat"`
	Retention   RetentionConfig  `toml:"retention"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration. The store runs
// in memory unless a path is configured and in_memory is disabled.
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path (ignored when in_memory)
	InMemory       bool   `toml:"in_memory"`        // Keep all data in memory, nothing on disk (default: true)
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level         string   `toml:"level"`           // "debug", "info", "warn", "error"
	Format        string   `toml:"format"`          // "json" or "text"
	Output        []string `toml:"output"`          // "stdout", "file"
	MinEventLevel string   `toml:"min_event_level"` // Minimum level to publish as events to UI
}

// WebSocketConfig contains configuration for the event stream endpoint
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum event level to broadcast ("info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Event message patterns to exclude from broadcasting
}

// MarketDataConfig contains the price data provider configuration
type MarketDataConfig struct {
	BaseURL       string  `toml:"base_url"`        // Provider base URL (default: Yahoo chart API)
	Timeout       string  `toml:"timeout"`         // HTTP request timeout as duration string
	RatePerSecond float64 `toml:"rate_per_second"` // Sustained request rate against the provider
	Burst         int     `toml:"burst"`           // Request burst allowance
	DefaultPeriod string  `toml:"default_period"`  // History window when a request omits one
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for commentary generation (default: "gemini-2.5-flash")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for commentary generation (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
	Timeout         string      `toml:"timeout"`          // Per-completion timeout as duration string (default: "30s")
	MinInterval     string      `toml:"min_interval"`     // Minimum spacing between provider calls (default: "1s")
}

// MinIntervalDuration parses the configured call spacing, falling back to
// one second on bad input.
func (c *LLMConfig) MinIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.MinInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// ChatConfig contains conversation behavior settings
type ChatConfig struct {
	HistoryTurns  int `toml:"history_turns"`   // Turns of context carried into each prompt (default: 10)
	MaxTurnLength int `toml:"max_turn_length"` // Longest accepted user message in characters (default: 2000)
}

// RetentionConfig controls background cleanup of stored sessions and results
type RetentionConfig struct {
	Enabled    bool   `toml:"enabled"`     // Run the cleanup schedule (default: true)
	Schedule   string `toml:"schedule"`    // Cron schedule for cleanup runs (default: every 10 minutes)
	SessionTTL string `toml:"session_ttl"` // Idle session lifetime as duration string (default: "1h")
	BundleTTL  string `toml:"bundle_ttl"`  // Stored analysis lifetime as duration string (default: "24h")
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in insightx.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:     "./data",
				InMemory: true, // Analyses are recomputable, nothing needs to survive a restart
			},
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			Output:        []string{"stdout"},
			MinEventLevel: "info",
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
			},
		},
		MarketData: MarketDataConfig{
			BaseURL:       "https://query1.finance.yahoo.com",
			Timeout:       "30s",
			RatePerSecond: 2, // Stay well inside the public chart API tolerance
			Burst:         4,
			DefaultPeriod: "6mo",
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Timeout:         "30s",
			MinInterval:     "1s",
		},
		Chat: ChatConfig{
			HistoryTurns:  10,
			MaxTurnLength: 2000,
		},
		Retention: RetentionConfig{
			Enabled:    true,
			Schedule:   "*/10 * * * *",
			SessionTTL: "1h",
			BundleTTL:  "24h",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: INSIGHTX_ENV, fallback: GO_ENV)
	if env := os.Getenv("INSIGHTX_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("INSIGHTX_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("INSIGHTX_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("INSIGHTX_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if inMemory := os.Getenv("INSIGHTX_BADGER_IN_MEMORY"); inMemory != "" {
		if im, err := strconv.ParseBool(inMemory); err == nil {
			config.Storage.Badger.InMemory = im
		}
	}

	// Logging configuration
	if level := os.Getenv("INSIGHTX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("INSIGHTX_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("INSIGHTX_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if minEventLevel := os.Getenv("INSIGHTX_LOG_MIN_EVENT_LEVEL"); minEventLevel != "" {
		config.Logging.MinEventLevel = minEventLevel
	}

	// Market data configuration
	if baseURL := os.Getenv("INSIGHTX_MARKETDATA_BASE_URL"); baseURL != "" {
		config.MarketData.BaseURL = baseURL
	}
	if timeout := os.Getenv("INSIGHTX_MARKETDATA_TIMEOUT"); timeout != "" {
		config.MarketData.Timeout = timeout
	}
	if period := os.Getenv("INSIGHTX_MARKETDATA_DEFAULT_PERIOD"); period != "" {
		config.MarketData.DefaultPeriod = period
	}

	// Gemini configuration
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("INSIGHTX_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey // INSIGHTX_ prefix takes priority
	}
	if model := os.Getenv("INSIGHTX_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if temperature := os.Getenv("INSIGHTX_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("INSIGHTX_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // INSIGHTX_ prefix takes priority
	}
	if model := os.Getenv("INSIGHTX_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("INSIGHTX_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if temperature := os.Getenv("INSIGHTX_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("INSIGHTX_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if timeout := os.Getenv("INSIGHTX_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}
	if interval := os.Getenv("INSIGHTX_LLM_MIN_INTERVAL"); interval != "" {
		config.LLM.MinInterval = interval
	}

	// Chat configuration
	if turns := os.Getenv("INSIGHTX_CHAT_HISTORY_TURNS"); turns != "" {
		if n, err := strconv.Atoi(turns); err == nil {
			config.Chat.HistoryTurns = n
		}
	}

	// Retention configuration
	if enabled := os.Getenv("INSIGHTX_RETENTION_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Retention.Enabled = e
		}
	}
	if sessionTTL := os.Getenv("INSIGHTX_RETENTION_SESSION_TTL"); sessionTTL != "" {
		config.Retention.SessionTTL = sessionTTL
	}
	if bundleTTL := os.Getenv("INSIGHTX_RETENTION_BUNDLE_TTL"); bundleTTL != "" {
		config.Retention.BundleTTL = bundleTTL
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// SessionTTLSeconds returns the configured idle session lifetime in seconds.
func (c *RetentionConfig) SessionTTLSeconds() int64 {
	return ttlSeconds(c.SessionTTL, time.Hour)
}

// BundleTTLSeconds returns the configured stored analysis lifetime in seconds.
func (c *RetentionConfig) BundleTTLSeconds() int64 {
	return ttlSeconds(c.BundleTTL, 24*time.Hour)
}

func ttlSeconds(s string, fallback time.Duration) int64 {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		d = fallback
	}
	return int64(d / time.Second)
}
