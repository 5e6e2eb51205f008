package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Google    GoogleConfig    `mapstructure:"google"`
	IMAP      IMAPConfig      `mapstructure:"imap"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	AI        AIConfig        `mapstructure:"ai"`
	Events    EventsConfig    `mapstructure:"events"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GoogleConfig holds the OAuth2 client used for Gmail and Gmail IMAP
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// IMAPConfig holds the IMAP server address
type IMAPConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mailbox string `mapstructure:"mailbox"`
}

// SyncConfig holds mailbox sync configuration
type SyncConfig struct {
	PageSize        int    `mapstructure:"page_size"`
	SummaryMaxChars int    `mapstructure:"summary_max_chars"`
	OutboundAuthor  string `mapstructure:"outbound_author"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	AutoSync        bool   `mapstructure:"auto_sync"`
}

// ReconcileConfig holds the last-contact reconciliation schedule
type ReconcileConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// AIConfig holds text generation provider configuration
type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	OllamaBaseURL string        `mapstructure:"ollama_base_url"`
	OllamaModel   string        `mapstructure:"ollama_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// EventsConfig selects where change notifications are forwarded
type EventsConfig struct {
	Driver      string `mapstructure:"driver"`
	NATSURL     string `mapstructure:"nats_url"`
	RabbitMQURL string `mapstructure:"rabbitmq_url"`
	Exchange    string `mapstructure:"exchange"`
}

// AuthConfig holds caller identity configuration
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	DefaultUserID string `mapstructure:"default_user_id"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig loads configuration from .env, environment variables and config file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("google.redirect_url", "http://localhost:8080/oauth/callback")

	v.SetDefault("imap.host", "imap.gmail.com")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.mailbox", "[Gmail]/All Mail")

	v.SetDefault("sync.page_size", 50)
	v.SetDefault("sync.summary_max_chars", 2000)
	v.SetDefault("sync.outbound_author", "Zlatko")
	v.SetDefault("sync.interval_minutes", 30)
	v.SetDefault("sync.auto_sync", false)

	v.SetDefault("reconcile.enabled", false)
	v.SetDefault("reconcile.schedule", "0 0 3 * * *")

	v.SetDefault("ai.provider", "auto")
	v.SetDefault("ai.gemini_model", "gemini-2.5-flash")
	v.SetDefault("ai.ollama_base_url", "http://localhost:11434")
	v.SetDefault("ai.ollama_model", "llama3")
	v.SetDefault("ai.timeout", "30s")

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("events.exchange", "zlatko.changes")

	v.SetDefault("auth.default_user_id", "")

	v.SetDefault("log.level", "info")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	// Google
	v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	v.BindEnv("google.redirect_url", "GOOGLE_REDIRECT_URL")

	// IMAP
	v.BindEnv("imap.host", "IMAP_HOST")
	v.BindEnv("imap.port", "IMAP_PORT")
	v.BindEnv("imap.mailbox", "IMAP_MAILBOX")

	// Sync
	v.BindEnv("sync.page_size", "SYNC_PAGE_SIZE")
	v.BindEnv("sync.summary_max_chars", "SYNC_SUMMARY_MAX_CHARS")
	v.BindEnv("sync.outbound_author", "SYNC_OUTBOUND_AUTHOR")
	v.BindEnv("sync.interval_minutes", "SYNC_INTERVAL_MINUTES")
	v.BindEnv("sync.auto_sync", "SYNC_AUTO_SYNC")

	// Reconcile
	v.BindEnv("reconcile.enabled", "RECONCILE_ENABLED")
	v.BindEnv("reconcile.schedule", "RECONCILE_SCHEDULE")

	// AI
	v.BindEnv("ai.provider", "AI_PROVIDER")
	v.BindEnv("ai.gemini_api_key", "GEMINI_API_KEY")
	v.BindEnv("ai.gemini_model", "GEMINI_MODEL")
	v.BindEnv("ai.ollama_base_url", "OLLAMA_BASE_URL")
	v.BindEnv("ai.ollama_model", "OLLAMA_MODEL")
	v.BindEnv("ai.timeout", "AI_TIMEOUT")

	// Events
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.nats_url", "NATS_URL")
	v.BindEnv("events.rabbitmq_url", "RABBITMQ_URL")
	v.BindEnv("events.exchange", "EVENTS_EXCHANGE")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.default_user_id", "DEFAULT_USER_ID")

	v.BindEnv("log.level", "LOG_LEVEL")
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Sync.PageSize <= 0 || c.Sync.PageSize > 500 {
		return fmt.Errorf("sync page size must be between 1 and 500")
	}

	if c.Sync.SummaryMaxChars <= 0 {
		return fmt.Errorf("sync summary max chars must be greater than 0")
	}

	if c.Sync.AutoSync && c.Sync.IntervalMinutes <= 0 {
		return fmt.Errorf("sync interval must be greater than 0")
	}

	if c.Reconcile.Enabled && c.Reconcile.Schedule == "" {
		return fmt.Errorf("reconcile schedule is required when reconcile is enabled")
	}

	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "ollama", "auto", "none":
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}

	switch c.Events.Driver {
	case "none", "":
	case "nats":
		if c.Events.NATSURL == "" {
			return fmt.Errorf("nats url is required for the nats events driver")
		}
	case "rabbitmq":
		if c.Events.RabbitMQURL == "" {
			return fmt.Errorf("rabbitmq url is required for the rabbitmq events driver")
		}
	default:
		return fmt.Errorf("unsupported events driver %q", c.Events.Driver)
	}

	return nil
}
