package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	RepositoryUniqueID string        `mapstructure:"XDS_REPOSITORY_UNIQUE_ID"`
	HomeCommunityID    string        `mapstructure:"XDS_HOME_COMMUNITY_ID"`
	RegistryURL        string        `mapstructure:"XDS_REGISTRY_URL"`
	RegistryTimeout    time.Duration `mapstructure:"XDS_REGISTRY_TIMEOUT"`

	AutoCreatePatients  bool `mapstructure:"XDS_AUTOCREATE_PATIENTS"`
	AutoCreateProviders bool `mapstructure:"XDS_AUTOCREATE_PROVIDERS"`

	AsyncDiscreteHandling bool          `mapstructure:"XDS_ASYNC_DISCRETE"`
	QueuePollPeriod       time.Duration `mapstructure:"XDS_QUEUE_POLL_PERIOD"`
	QueueWorkers          int           `mapstructure:"XDS_QUEUE_WORKERS"`
	QueueShutdownGrace    time.Duration `mapstructure:"XDS_QUEUE_SHUTDOWN_GRACE"`
	// QueueRequeueAfter requeues items stuck in PROCESSING after this long.
	// Zero disables the sweep.
	QueueRequeueAfter time.Duration `mapstructure:"XDS_QUEUE_REQUEUE_AFTER"`

	JWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("XDS_REGISTRY_TIMEOUT", "30s")
	v.SetDefault("XDS_AUTOCREATE_PATIENTS", false)
	v.SetDefault("XDS_AUTOCREATE_PROVIDERS", true)
	v.SetDefault("XDS_ASYNC_DISCRETE", false)
	v.SetDefault("XDS_QUEUE_POLL_PERIOD", "200ms")
	v.SetDefault("XDS_QUEUE_WORKERS", 2)
	v.SetDefault("XDS_QUEUE_SHUTDOWN_GRACE", "10s")
	v.SetDefault("XDS_QUEUE_REQUEUE_AFTER", "0")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("XDS_REPOSITORY_UNIQUE_ID")
	v.BindEnv("XDS_HOME_COMMUNITY_ID")
	v.BindEnv("XDS_REGISTRY_URL")
	v.BindEnv("XDS_REGISTRY_TIMEOUT")
	v.BindEnv("XDS_AUTOCREATE_PATIENTS")
	v.BindEnv("XDS_AUTOCREATE_PROVIDERS")
	v.BindEnv("XDS_ASYNC_DISCRETE")
	v.BindEnv("XDS_QUEUE_POLL_PERIOD")
	v.BindEnv("XDS_QUEUE_WORKERS")
	v.BindEnv("XDS_QUEUE_SHUTDOWN_GRACE")
	v.BindEnv("XDS_QUEUE_REQUEUE_AFTER")
	v.BindEnv("AUTH_JWT_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration can serve XDS.b transactions.
// The repository unique id and a registry URL are mandatory: every retrieval
// compares against the former and every submission is forwarded to the latter.
func (c *Config) Validate() error {
	if c.RepositoryUniqueID == "" {
		return fmt.Errorf("XDS_REPOSITORY_UNIQUE_ID is required")
	}
	if c.RegistryURL == "" {
		return fmt.Errorf("XDS_REGISTRY_URL is required")
	}
	if u, err := url.Parse(c.RegistryURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("XDS_REGISTRY_URL %q is not an absolute URL", c.RegistryURL)
	}
	if c.RegistryTimeout <= 0 {
		return fmt.Errorf("XDS_REGISTRY_TIMEOUT must be positive, got %s", c.RegistryTimeout)
	}
	if c.AsyncDiscreteHandling {
		if c.QueueWorkers < 1 {
			return fmt.Errorf("XDS_QUEUE_WORKERS must be at least 1 when XDS_ASYNC_DISCRETE is true, got %d", c.QueueWorkers)
		}
		if c.QueuePollPeriod <= 0 {
			return fmt.Errorf("XDS_QUEUE_POLL_PERIOD must be positive, got %s", c.QueuePollPeriod)
		}
	}
	if !c.IsDev() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required outside development")
	}
	return nil
}
