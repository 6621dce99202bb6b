// Package config provides configuration loading and management for marketbot.
//
// The configuration is constructed exactly once at process start and passed
// explicitly into tool bindings, crews, and servers. Credentials are resolved
// through GetSecret (encrypted secrets file first, environment second); tool
// bindings never read the environment at call time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names for credentials and provider selection.
const (
	EnvDeepSeekAPIKey    = "DEEPSEEK_API_KEY"
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvTavilyAPIKey      = "TAVILY_API_KEY"
	EnvSerperAPIKey      = "SERPER_API_KEY"
	EnvBufferAccessToken = "BUFFER_ACCESS_TOKEN"
	EnvMailerLiteAPIKey  = "MAILERLITE_API_KEY"
	EnvTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID    = "TELEGRAM_CHAT_ID"
	EnvPort              = "PORT"
	EnvOutputDir         = "OUTPUT_DIR"
	EnvModel             = "MARKETBOT_MODEL"
	EnvOllamaHost        = "OLLAMA_HOST"
)

// DeepSeek is served over an OpenAI-compatible API.
const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DefaultModel    = "deepseek-chat"
)

// Temperature defaults shared by all crews.
const (
	// TemperatureCreative is used for content, SEO, and email generation.
	TemperatureCreative float32 = 0.7
	// TemperatureAnalytical is used for analytics and reporting tasks.
	TemperatureAnalytical float32 = 0.1
)

// LLMConfig selects the model and carries the resolved credential for it.
type LLMConfig struct {
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"`
	BaseURL    string `yaml:"base_url"`
	OllamaHost string `yaml:"ollama_host"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// ToolsConfig carries credentials for the external SaaS tool bindings.
// Empty values are allowed: each binding reports an explicit configuration
// error at call time rather than failing process start.
type ToolsConfig struct {
	TavilyAPIKey      string
	SerperAPIKey      string
	BufferAccessToken string
	MailerLiteAPIKey  string
	TelegramBotToken  string
	TelegramChatID    string
}

// ScheduleConfig holds per-platform posting cadence used in task prompts.
type ScheduleConfig struct {
	PostsPerDay int   `yaml:"posts_per_day"`
	BestHours   []int `yaml:"best_hours"`
}

// SEOConfig holds article generation parameters.
type SEOConfig struct {
	KeywordsPerBatch     int `yaml:"keywords_per_batch"`
	MinWordCount         int `yaml:"min_word_count"`
	InternalLinksPerPage int `yaml:"internal_links_per_page"`
}

// EmailConfig holds nurture sequence parameters.
type EmailConfig struct {
	WelcomeDelayHours   int `yaml:"welcome_delay_hours"`
	NurtureIntervalDays int `yaml:"nurture_interval_days"`
	MaxSequenceLength   int `yaml:"max_sequence_length"`
}

// ServerConfig holds the remote access server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Config is the root configuration object.
type Config struct {
	LLM       LLMConfig                 `yaml:"llm"`
	Tools     ToolsConfig               `yaml:"-"`
	Schedule  map[string]ScheduleConfig `yaml:"schedule"`
	SEO       SEOConfig                 `yaml:"seo"`
	Email     EmailConfig               `yaml:"email"`
	Server    ServerConfig              `yaml:"server"`
	OutputDir string                    `yaml:"output_dir"`
	DBPath    string                    `yaml:"db_path"`
}

// Default returns the built-in configuration, matching the cadence and
// thresholds the crews were tuned for.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:     DefaultModel,
			BaseURL:   DeepSeekBaseURL,
			MaxTokens: 4096,
		},
		Schedule: map[string]ScheduleConfig{
			"twitter":   {PostsPerDay: 3, BestHours: []int{9, 13, 18}},
			"instagram": {PostsPerDay: 1, BestHours: []int{11, 19}},
			"linkedin":  {PostsPerDay: 1, BestHours: []int{8, 12}},
		},
		SEO: SEOConfig{
			KeywordsPerBatch:     10,
			MinWordCount:         1500,
			InternalLinksPerPage: 3,
		},
		Email: EmailConfig{
			WelcomeDelayHours:   0,
			NurtureIntervalDays: 2,
			MaxSequenceLength:   7,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		OutputDir: "output",
		DBPath:    "marketbot.db",
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path (missing file is not an error), then environment overrides, then
// credential resolution through GetSecret.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	resolveCredentials(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvModel); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(EnvOllamaHost); v != "" {
		cfg.LLM.OllamaHost = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
}

func resolveCredentials(cfg *Config) {
	cfg.LLM.APIKey = secretOrEmpty(llmKeyEnvVar(cfg.LLM.Model))
	cfg.Tools = ToolsConfig{
		TavilyAPIKey:      secretOrEmpty(EnvTavilyAPIKey),
		SerperAPIKey:      secretOrEmpty(EnvSerperAPIKey),
		BufferAccessToken: secretOrEmpty(EnvBufferAccessToken),
		MailerLiteAPIKey:  secretOrEmpty(EnvMailerLiteAPIKey),
		TelegramBotToken:  secretOrEmpty(EnvTelegramBotToken),
		TelegramChatID:    secretOrEmpty(EnvTelegramChatID),
	}
}

func secretOrEmpty(name string) string {
	value, err := GetSecret(name)
	if err != nil {
		return ""
	}
	return value
}

// llmKeyEnvVar maps a model name to the env var carrying its API key.
func llmKeyEnvVar(model string) string {
	switch InferProvider(model) {
	case ProviderAnthropic:
		return EnvAnthropicAPIKey
	case ProviderGoogle:
		return EnvGeminiAPIKey
	case ProviderOllama:
		return "" // local, no key
	default:
		return EnvDeepSeekAPIKey
	}
}

// Validate rejects configurations that cannot produce a working process.
// Missing SaaS credentials are deliberately not validated here: each tool
// binding reports them at call time so partially configured installs can
// still run the pipelines that do not need the missing service.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model cannot be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.Email.MaxSequenceLength <= 0 {
		return fmt.Errorf("email max sequence length must be positive")
	}
	return nil
}
