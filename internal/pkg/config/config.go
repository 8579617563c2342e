package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendDemo     = "demo"
	BackendAccounts = "accounts"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8080"`

	Auth    AuthConfig
	Session SessionConfig
	Notify  NotifyConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type AuthConfig struct {
	// Backend selects "demo" (any credentials, role from email) or "accounts".
	Backend          string        `env:"AUTH_BACKEND,      default=demo"`
	SimulatedLatency time.Duration `env:"SIMULATED_LATENCY, default=0s"`
	OTPTTL           time.Duration `env:"OTP_TTL,           default=10m"`
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL,   default=1h"`
	ResendCooldown   time.Duration `env:"RESEND_COOLDOWN,   default=30s"`
}

type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL,           default=168h"`
	IdleSweep     time.Duration `env:"SESSION_IDLE_SWEEP,    default=30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=5m"`
	CookieSecure  bool          `env:"COOKIE_SECURE,         default=false"`
}

type NotifyConfig struct {
	Workers  int           `env:"NOTIFY_WORKERS,   default=4"`
	InboxTTL time.Duration `env:"NOTIFY_INBOX_TTL, default=1h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=farmfresh"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	switch c.Auth.Backend {
	case BackendDemo:
	case BackendAccounts:
		if c.JWTSecret == "" {
			return fmt.Errorf("config: JWT_SECRET is required with AUTH_BACKEND=%s", BackendAccounts)
		}
	default:
		return fmt.Errorf("config: unknown AUTH_BACKEND %q", c.Auth.Backend)
	}
	return nil
}
