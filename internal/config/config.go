package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ContentGenesis/pkg/logger"
)

const (
	defaultTimezone     = "UTC"
	configPathEnv       = "GENESIS_CONFIG"
	logLevelEnv         = "GENESIS_LOG_LEVEL"
	httpAddrEnv         = "GENESIS_HTTP_ADDR"
	databaseDriverEnv   = "DATABASE_DRIVER"
	databaseDSNEnv      = "DATABASE_DSN"
	geminiAPIKeyEnv     = "GEMINI_API_KEY"
	openAIAPIKeyEnv     = "OPENAI_API_KEY"
	inferenceAPIKeyEnv  = "INFERENCE_API_KEY"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	curriculumPathEnv   = "GENESIS_CURRICULUM"
	defaultLogCapacity  = 100
	defaultTierTimeout  = 45 * time.Second
	defaultSQLiteDriver = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Providers     ProvidersConfig    `yaml:"providers"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
	Curriculum    CurriculumConfig   `yaml:"curriculum"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes where generation results live.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// ProvidersConfig lists the two cloud tiers in fallback order.
type ProvidersConfig struct {
	Primary   ProviderConfig `yaml:"primary"`
	Secondary ProviderConfig `yaml:"secondary"`
}

// ProviderConfig defines how to contact one generation backend.
type ProviderConfig struct {
	Kind         string        `yaml:"kind"` // gemini, openai, inference
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
	// RequestsPerMinute throttles calls to the backend; zero disables throttling.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// PipelineConfig tunes the Genesis run loop.
type PipelineConfig struct {
	LogCapacity      int  `yaml:"logCapacity"`
	DisableGrounding bool `yaml:"disableGrounding"`
}

// SchedulerConfig defines when sweeps are triggered automatically.
type SchedulerConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// HTTPConfig configures the control API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	Endpoint string `yaml:"endpoint"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// CurriculumConfig points at an alternative curriculum tree; empty uses the embedded one.
type CurriculumConfig struct {
	Path string `yaml:"path"`
}

var bootLog = logger.New("config")

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			bootLog.Printf("cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			bootLog.Printf("cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(curriculumPathEnv); v != "" {
		c.Curriculum.Path = v
	}

	for _, p := range []*ProviderConfig{&c.Providers.Primary, &c.Providers.Secondary} {
		if p.APIKey != "" {
			continue
		}
		switch p.Kind {
		case "gemini":
			p.APIKey = os.Getenv(geminiAPIKeyEnv)
		case "openai":
			p.APIKey = os.Getenv(openAIAPIKeyEnv)
		case "inference":
			p.APIKey = os.Getenv(inferenceAPIKeyEnv)
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		bootLog.Printf("unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	base.Providers.Primary = mergeProvider(base.Providers.Primary, override.Providers.Primary)
	base.Providers.Secondary = mergeProvider(base.Providers.Secondary, override.Providers.Secondary)

	if override.Pipeline.LogCapacity > 0 {
		base.Pipeline.LogCapacity = override.Pipeline.LogCapacity
	}
	if override.Pipeline.DisableGrounding {
		base.Pipeline.DisableGrounding = true
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.Notifications.Telegram.Endpoint != "" {
		base.Notifications.Telegram.Endpoint = override.Notifications.Telegram.Endpoint
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Curriculum.Path != "" {
		base.Curriculum.Path = override.Curriculum.Path
	}

	return base
}

func mergeProvider(base, override ProviderConfig) ProviderConfig {
	if override.Kind != "" && override.Kind != base.Kind {
		// A different backend kind invalidates the default endpoint and model.
		base = ProviderConfig{Kind: override.Kind, Timeout: base.Timeout}
	}
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.SystemPrompt != "" {
		base.SystemPrompt = override.SystemPrompt
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.RequestsPerMinute > 0 {
		base.RequestsPerMinute = override.RequestsPerMinute
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: defaultSQLiteDriver, DSN: "genesis.db"},
		Providers: ProvidersConfig{
			Primary: ProviderConfig{
				Kind:              "gemini",
				Endpoint:          "https://generativelanguage.googleapis.com/v1beta",
				Model:             "gemini-2.5-flash",
				Timeout:           defaultTierTimeout,
				RequestsPerMinute: 10,
			},
			Secondary: ProviderConfig{
				Kind:              "openai",
				Endpoint:          "https://api.openai.com/v1/chat/completions",
				Model:             "gpt-4o-mini",
				SystemPrompt:      "You write thorough, well-structured lesson material for an education portal.",
				Timeout:           defaultTierTimeout,
				RequestsPerMinute: 30,
			},
		},
		Pipeline:  PipelineConfig{LogCapacity: defaultLogCapacity},
		Scheduler: SchedulerConfig{Enabled: false, Interval: 6 * time.Hour, Timezone: defaultTimezone, location: tz},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{Endpoint: "https://api.telegram.org"},
		},
	}
}
