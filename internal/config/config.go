// Package config loads settings from defaults, an optional config file,
// IFRIT_* environment variables and command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	DB        string         `mapstructure:"db"`
	Addr      string         `mapstructure:"addr"`
	Log       string         `mapstructure:"log"`
	Debug     bool           `mapstructure:"debug"`
	AdminUser string         `mapstructure:"admin_user"`
	Features  FeaturesConfig `mapstructure:"features"`
	AI        AIConfig       `mapstructure:"ai"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Stripe    StripeConfig   `mapstructure:"stripe"`
	Backup    BackupConfig   `mapstructure:"backup"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	Server    ServerConfig   `mapstructure:"server"`
}

// FeaturesConfig toggles optional collection features.
type FeaturesConfig struct {
	Lottery      bool `mapstructure:"lottery"`
	Achievements bool `mapstructure:"achievements"`
}

// AIConfig selects the AI provider. An empty provider disables AI endpoints.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"` // "openai", "gemini" or ""
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	VisionModel string        `mapstructure:"vision_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RedisConfig points at the chat history cache. An empty address keeps
// history in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StripeConfig holds the webhook signing secret.
type StripeConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// BackupConfig points at an S3-compatible bucket. An empty endpoint
// disables remote backups.
type BackupConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// EnvPrefix prefixes every environment variable, e.g. IFRIT_AI_API_KEY.
const EnvPrefix = "IFRIT"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", "ifrit.sqlite3")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log", "")
	v.SetDefault("debug", false)
	v.SetDefault("admin_user", "Admin")

	v.SetDefault("features.lottery", true)
	v.SetDefault("features.achievements", true)

	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.vision_model", "gpt-4o")
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("stripe.webhook_secret", "")

	v.SetDefault("backup.endpoint", "")
	v.SetDefault("backup.access_key", "")
	v.SetDefault("backup.secret_key", "")
	v.SetDefault("backup.bucket", "ifrit-backups")
	v.SetDefault("backup.use_ssl", true)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs to the key of the same name.
// Dashes in flag names become underscores, so --admin-user sets admin_user.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider)
	}
	if c.AI.Provider != "" && c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required when ai.provider is %q", c.AI.Provider)
	}
	if c.Backup.Endpoint != "" && c.Backup.Bucket == "" {
		return fmt.Errorf("backup.bucket is required when backup.endpoint is set")
	}
	return nil
}
