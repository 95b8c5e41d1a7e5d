// Package config loads configs/config.yml, an optional .env file and
// environment overrides into a typed Config.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"expense_tracker/internal/logger"
	"expense_tracker/internal/notification"
)

// Reset token store backends.
const (
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

type Config struct {
	Port      string              `mapstructure:"port"`
	DB        DBConfig            `mapstructure:"db"`
	Auth      AuthConfig          `mapstructure:"auth"`
	Log       LogConfig           `mapstructure:"log"`
	Mail      notification.Config `mapstructure:"mail"`
	Reset     ResetConfig         `mapstructure:"reset"`
	Analytics AnalyticsConfig     `mapstructure:"analytics"`
	WS        WSConfig            `mapstructure:"ws"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string `mapstructure:"signing_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ResetConfig selects where reset tokens live and how often expired ones are
// swept. A zero SweepInterval disables the sweeper.
type ResetConfig struct {
	Store         string        `mapstructure:"store"`
	BoltPath      string        `mapstructure:"bolt_path"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	LinkBase      string        `mapstructure:"link_base"`
}

type AnalyticsConfig struct {
	AdminToken string `mapstructure:"admin_token"`
}

type WSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
var defaults = map[string]any{
	"port":                     "3000",
	"db.path":                  "expense_tracker.db",
	"auth.signing_key":         "",
	"log.level":                logger.InfoLevel,
	"log.format":               logger.FormatConsole,
	"mail.provider":            notification.ProviderLog,
	"mail.from":                "no-reply@expense-tracker.local",
	"mail.smtp.host":           "",
	"mail.smtp.port":           587,
	"mail.smtp.username":       "",
	"mail.smtp.password":       "",
	"mail.gmail.client_id":     "",
	"mail.gmail.client_secret": "",
	"mail.gmail.refresh_token": "",
	"reset.store":              StoreSQLite,
	"reset.bolt_path":          "reset_tokens.bolt",
	"reset.sweep_interval":     "10m",
	"reset.link_base":          "",
	"analytics.admin_token":    "",
	"ws.allowed_origins":       []string{},
}

// Load reads config.yml from dir (missing file is fine), then .env, then the
// environment. AUTH_SIGNING_KEY overrides auth.signing_key and so on.
func Load(dir string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		errs = append(errs, errors.New("auth.signing_key is required (AUTH_SIGNING_KEY)"))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	switch c.Reset.Store {
	case StoreSQLite, StoreMemory:
	case StoreBolt:
		if c.Reset.BoltPath == "" {
			errs = append(errs, errors.New("reset.bolt_path is required for the bolt store"))
		}
	default:
		errs = append(errs, fmt.Errorf("reset.store %q: want sqlite, bolt or memory", c.Reset.Store))
	}
	if c.Reset.SweepInterval < 0 {
		errs = append(errs, errors.New("reset.sweep_interval must not be negative"))
	}
	switch c.Log.Format {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want console or json", c.Log.Format))
	}
	switch c.Mail.Provider {
	case "", notification.ProviderLog:
	case notification.ProviderSMTP, notification.ProviderGmail:
		// without a fixed base the link would come from the request's Host header
		if c.Reset.LinkBase == "" {
			errs = append(errs, fmt.Errorf("reset.link_base is required when mail.provider is %s (RESET_LINK_BASE)", c.Mail.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.provider %q: want log, smtp or gmail", c.Mail.Provider))
	}
	if c.Reset.LinkBase != "" {
		if u, err := url.Parse(c.Reset.LinkBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("reset.link_base %q: want an absolute http(s) URL", c.Reset.LinkBase))
		}
	}
	return errors.Join(errs...)
}
