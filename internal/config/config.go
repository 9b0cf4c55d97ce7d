// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Review  ReviewConfig  `mapstructure:"review" yaml:"review"`
	Profile ProfileConfig `mapstructure:"profile" yaml:"profile"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Audit   AuditConfig   `mapstructure:"audit" yaml:"audit"`
	Inbox   InboxConfig   `mapstructure:"inbox" yaml:"inbox"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMProvider defines the supported chat-completion providers.
type LLMProvider string

const (
	ProviderGroq   LLMProvider = "groq"
	ProviderGemini LLMProvider = "gemini"
)

// LLMModelConfig defines the configuration for a single model role.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// LLMConfig configures the two model roles. The drafter writes replies, the
// critic scores them; they may point at the same model with different
// sampling settings.
type LLMConfig struct {
	Drafter LLMModelConfig `mapstructure:"drafter" yaml:"drafter"`
	Critic  LLMModelConfig `mapstructure:"critic" yaml:"critic"`
	// RequestsPerMinute caps outbound LLM calls across both roles.
	// Zero disables the limiter.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// ReviewConfig tunes the quality gate and the revision loop.
type ReviewConfig struct {
	// Threshold is the minimum overall score for a reply to pass.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	// MaxRounds is the number of revision rounds allowed beyond the first
	// attempt, so MaxRounds+1 generation calls at most.
	MaxRounds int `mapstructure:"max_rounds" yaml:"max_rounds"`
	// Dimensions is the fixed set of quality dimensions the critic must
	// score. Every dimension must be present on every assessment.
	Dimensions []string `mapstructure:"dimensions" yaml:"dimensions"`
	// DimensionWeights optionally weights the overall mean. Missing means
	// uniform. Keys must name configured dimensions.
	DimensionWeights map[string]float64 `mapstructure:"dimension_weights" yaml:"dimension_weights"`
	// SafetyFloor fails an assessment outright when any safety dimension
	// scores below it, regardless of the overall mean. Zero disables it.
	SafetyFloor float64 `mapstructure:"safety_floor" yaml:"safety_floor"`
	// SafetyDimensions names which dimensions the floor applies to.
	SafetyDimensions []string `mapstructure:"safety_dimensions" yaml:"safety_dimensions"`
	// CallTimeout bounds each individual generation or scoring call.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
	// SessionBudget optionally bounds the whole session wall-clock. Zero
	// disables it.
	SessionBudget time.Duration `mapstructure:"session_budget" yaml:"session_budget"`
}

// ProfileConfig points at the applicant profile the drafter speaks for.
type ProfileConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	SummaryFile string `mapstructure:"summary_file" yaml:"summary_file"`
}

// TelegramConfig configures the Telegram notification channel.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	BotToken string        `mapstructure:"bot_token" yaml:"-"`
	ChatID   string        `mapstructure:"chat_id" yaml:"chat_id"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// EmailConfig configures the SMTP notification channel.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
	From     string `mapstructure:"from" yaml:"from"`
	To       string `mapstructure:"to" yaml:"to"`
}

// NotifyConfig configures the escalation sink channels.
type NotifyConfig struct {
	// QueueSize bounds the async dispatch queue. Notifications beyond it
	// are dropped, never blocked on.
	QueueSize int            `mapstructure:"queue_size" yaml:"queue_size"`
	Telegram  TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Email     EmailConfig    `mapstructure:"email" yaml:"email"`
}

// AuditConfig configures the outcome audit store.
type AuditConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabaseURL string `mapstructure:"database_url" yaml:"-"`
}

// InboxConfig configures the watch command's inbox file.
type InboxConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	// Concurrency is the number of review sessions processed in parallel.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// Replay processes messages already present in the inbox file instead
	// of starting from its end.
	Replay bool `mapstructure:"replay" yaml:"replay"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "replyvet")
	v.SetDefault("logger.log_file", "replyvet.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.drafter.provider", "groq")
	v.SetDefault("llm.drafter.model", "qwen/qwen3-32b")
	v.SetDefault("llm.drafter.api_timeout", "90s")
	v.SetDefault("llm.drafter.temperature", 0.7)
	v.SetDefault("llm.drafter.max_tokens", 2000)
	v.SetDefault("llm.critic.provider", "groq")
	v.SetDefault("llm.critic.model", "qwen/qwen3-32b")
	v.SetDefault("llm.critic.api_timeout", "90s")
	v.SetDefault("llm.critic.temperature", 0.3)
	v.SetDefault("llm.critic.max_tokens", 1024)
	v.SetDefault("llm.requests_per_minute", 0)

	// -- Review --
	v.SetDefault("review.threshold", 7.5)
	v.SetDefault("review.max_rounds", 2)
	v.SetDefault("review.dimensions", []string{
		"professional_tone", "clarity", "completeness", "safety", "relevance",
	})
	v.SetDefault("review.safety_floor", 0.0)
	v.SetDefault("review.safety_dimensions", []string{"safety"})
	v.SetDefault("review.call_timeout", "2m")
	v.SetDefault("review.session_budget", "0s")

	// -- Profile --
	v.SetDefault("profile.name", "the applicant")
	v.SetDefault("profile.summary_file", "")

	// -- Notify --
	v.SetDefault("notify.queue_size", 64)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.endpoint", "https://api.telegram.org")
	v.SetDefault("notify.telegram.timeout", "10s")
	v.SetDefault("notify.email.enabled", false)
	v.SetDefault("notify.email.port", 587)

	// -- Audit --
	v.SetDefault("audit.enabled", false)

	// -- Inbox --
	v.SetDefault("inbox.path", "inbox.jsonl")
	v.SetDefault("inbox.concurrency", 4)
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Secrets come from the environment, never the config file.
	v.BindEnv("llm.drafter.api_key", "REPLYVET_LLM_API_KEY")
	v.BindEnv("llm.critic.api_key", "REPLYVET_LLM_API_KEY")
	v.BindEnv("notify.telegram.bot_token", "REPLYVET_TELEGRAM_BOT_TOKEN")
	v.BindEnv("notify.telegram.chat_id", "REPLYVET_TELEGRAM_CHAT_ID")
	v.BindEnv("notify.email.password", "REPLYVET_EMAIL_PASSWORD")
	v.BindEnv("audit.database_url", "REPLYVET_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Review.Validate(); err != nil {
		return fmt.Errorf("review configuration invalid: %w", err)
	}
	if c.Inbox.Concurrency <= 0 {
		return fmt.Errorf("inbox.concurrency must be a positive integer")
	}
	if c.Notify.QueueSize <= 0 {
		return fmt.Errorf("notify.queue_size must be a positive integer")
	}
	if c.Audit.Enabled && c.Audit.DatabaseURL == "" {
		return fmt.Errorf("audit.database_url is required when audit is enabled (set REPLYVET_DATABASE_URL)")
	}
	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("telegram bot_token and chat_id are required when the telegram channel is enabled")
	}
	return nil
}

// Validate checks the review loop settings.
func (r *ReviewConfig) Validate() error {
	if r.Threshold < 0 || r.Threshold > 10 {
		return fmt.Errorf("threshold must be within [0,10], got %.2f", r.Threshold)
	}
	if r.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must not be negative")
	}
	if len(r.Dimensions) == 0 {
		return fmt.Errorf("at least one quality dimension is required")
	}
	known := make(map[string]struct{}, len(r.Dimensions))
	for _, d := range r.Dimensions {
		if d == "" {
			return fmt.Errorf("dimension names must not be empty")
		}
		if _, dup := known[d]; dup {
			return fmt.Errorf("duplicate dimension %q", d)
		}
		known[d] = struct{}{}
	}
	for d, w := range r.DimensionWeights {
		if _, ok := known[d]; !ok {
			return fmt.Errorf("weight for unknown dimension %q", d)
		}
		if w <= 0 {
			return fmt.Errorf("weight for dimension %q must be positive", d)
		}
	}
	if r.SafetyFloor < 0 || r.SafetyFloor > 10 {
		return fmt.Errorf("safety_floor must be within [0,10], got %.2f", r.SafetyFloor)
	}
	for _, d := range r.SafetyDimensions {
		if _, ok := known[d]; !ok {
			return fmt.Errorf("safety dimension %q is not a configured dimension", d)
		}
	}
	if r.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be a positive duration")
	}
	if r.SessionBudget < 0 {
		return fmt.Errorf("session_budget must not be negative")
	}
	return nil
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}
