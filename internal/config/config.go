package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,default=3000"`
	DBPath    string `env:"DB_PATH,default=wg.db"`
	BaseURL   string `env:"BASE_URL,default=http://localhost:3000"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	SessionTTL Duration `env:"SESSION_TTL,default=30d"`

	Email    EmailConfig    `env:",prefix="`
	Push     PushConfig     `env:",prefix=VAPID_"`
	LowScore LowScoreConfig `env:",prefix=LOW_SCORE_"`
	Backup   BackupConfig   `env:",prefix=BACKUP_"`
}

type EmailConfig struct {
	PostmarkToken string `env:"POSTMARK_TOKEN"`
	FromEmail     string `env:"FROM_EMAIL"`
}

func (c EmailConfig) Enabled() bool {
	return c.PostmarkToken != "" && c.FromEmail != ""
}

type PushConfig struct {
	PublicKey  string `env:"PUBLIC_KEY"`
	PrivateKey string `env:"PRIVATE_KEY"`
	Subscriber string `env:"SUBSCRIBER"`
}

func (c PushConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

type LowScoreConfig struct {
	Enabled  bool     `env:"ENABLED,default=false"`
	Interval Duration `env:"INTERVAL,default=24h"`
	Ratio    float64  `env:"RATIO,default=0.5"`
}

type BackupConfig struct {
	S3Endpoint  string   `env:"S3_ENDPOINT"`
	S3Bucket    string   `env:"S3_BUCKET"`
	S3Region    string   `env:"S3_REGION,default=us-east-1"`
	S3AccessKey string   `env:"S3_ACCESS_KEY"`
	S3SecretKey string   `env:"S3_SECRET_KEY"`
	Passphrase  string   `env:"PASSPHRASE"`
	Interval    Duration `env:"INTERVAL,default=24h"`
	Retention   Duration `env:"RETENTION,default=30d"`
}

// Enabled reports whether scheduled backups are configured. The passphrase
// is checked separately by validate.
func (c BackupConfig) Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

const envPrefix = "WG_"

// Load reads an optional .env file and then the WG_* environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("WG_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.SessionTTL.Duration <= 0 {
		return errors.New("WG_SESSION_TTL must be positive")
	}
	if c.LowScore.Enabled && c.LowScore.Interval.Duration <= 0 {
		return errors.New("WG_LOW_SCORE_INTERVAL must be positive")
	}
	if c.LowScore.Ratio <= 0 || c.LowScore.Ratio > 1 {
		return fmt.Errorf("WG_LOW_SCORE_RATIO must be in (0, 1], got %v", c.LowScore.Ratio)
	}
	if c.Backup.Enabled() {
		if c.Backup.Passphrase == "" {
			return errors.New("WG_BACKUP_PASSPHRASE is required when backups are configured")
		}
		if c.Backup.Interval.Duration <= 0 {
			return errors.New("WG_BACKUP_INTERVAL must be positive")
		}
		if c.Backup.Retention.Duration < 0 {
			return errors.New("WG_BACKUP_RETENTION must not be negative")
		}
	}
	return nil
}
