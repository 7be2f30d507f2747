package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Task       TaskConfig       `mapstructure:"task"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Email      EmailConfig      `mapstructure:"email"`
	Backup     BackupConfig     `mapstructure:"backup"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Legacy     LegacyConfig     `mapstructure:"legacy"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"` // per-request store deadline
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite file, empty for in-memory
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout, stderr, file
	File   string `mapstructure:"file"`   // used when output is file
}

// GetLevel implements logger.Config
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput implements logger.Config
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile implements logger.Config
func (l LogConfig) GetFile() string {
	return l.File
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt
}

type TaskConfig struct {
	SyncInterval    time.Duration `mapstructure:"sync_interval"`
	StatusInterval  time.Duration `mapstructure:"status_interval"`
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"`
	OutboxInterval  time.Duration `mapstructure:"outbox_interval"`
	Timeout         time.Duration `mapstructure:"timeout"` // per-run deadline
}

type OutboxConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BatchSize   int           `mapstructure:"batch_size"`
	Workers     int           `mapstructure:"workers"`
	Backoff     time.Duration `mapstructure:"backoff"` // doubled per attempt
}

type PolicyConfig struct {
	WithdrawalGraceDays int `mapstructure:"withdrawal_grace_days"`
}

type ChainConfig struct {
	RPCURL       string        `mapstructure:"rpc_url"`
	MinAge       time.Duration `mapstructure:"min_age"`
	ConfirmBatch int           `mapstructure:"confirm_batch"`
}

type EmailConfig struct {
	APIURL   string `mapstructure:"api_url"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type BackupConfig struct {
	MongoURI   string `mapstructure:"mongo_uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type LegacyConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.store_timeout", "5s")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "don8")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/don8.sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("task.sync_interval", "10m")
	v.SetDefault("task.status_interval", "5m")
	v.SetDefault("task.confirm_interval", "1m")
	v.SetDefault("task.outbox_interval", "15s")
	v.SetDefault("task.timeout", "2m")
	v.SetDefault("outbox.max_attempts", 5)
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.workers", 4)
	v.SetDefault("outbox.backoff", "30s")
	v.SetDefault("policy.withdrawal_grace_days", 7)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.min_age", "30s")
	v.SetDefault("chain.confirm_batch", 100)
	v.SetDefault("email.api_url", "")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "DON-8")
	v.SetDefault("backup.mongo_uri", "")
	v.SetDefault("backup.database", "don8")
	v.SetDefault("backup.collection", "backups")
	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "reports")
	v.SetDefault("legacy.data_dir", "")
}

// Load reads .env, config.yaml and DON8_* environment variables.
// A missing config file is not an error; defaults apply.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/don8")
	}
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("DON8")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the service cannot run without
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Policy.WithdrawalGraceDays < 0 {
		return errors.New("policy.withdrawal_grace_days must not be negative")
	}
	if c.Outbox.MaxAttempts <= 0 {
		return errors.New("outbox.max_attempts must be positive")
	}
	if c.Outbox.Workers <= 0 {
		return errors.New("outbox.workers must be positive")
	}
	return nil
}
