package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton for components that predate dependency injection
var globalConfig *Config

// Config holds all environment backed configuration for routing-api.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// PostgreSQL read replica (optional)
	DBPostgresqlRead1DSN string `env:"DB_POSTGRESQL_READ1_DSN"`

	// Service auth (internal dashboard / ops callers)
	ServiceTokenSecret string        `env:"SERVICE_TOKEN_SECRET,notEmpty"`
	ServiceTokenIssuer string        `env:"SERVICE_TOKEN_ISSUER" envDefault:"leadchat"`
	ServiceTokenSkew   time.Duration `env:"SERVICE_TOKEN_CLOCK_SKEW" envDefault:"30s"`

	// Emergency access tokens
	EmergencyTokenSecret string `env:"EMERGENCY_TOKEN_SECRET,notEmpty"`

	// WhatsApp-style gateway
	GatewayBaseURL       string        `env:"GATEWAY_BASE_URL,notEmpty"`
	GatewayDefaultToken  string        `env:"GATEWAY_DEFAULT_TOKEN"`
	GatewayDefaultNumber string        `env:"GATEWAY_DEFAULT_NUMBER"`
	GatewayTimeout       time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`

	// Ops channel that receives control-change notifications
	OpsNotifyRecipient string `env:"OPS_NOTIFY_RECIPIENT"`

	// Agent bootstrap
	AgentConfigsEnabled bool                  `env:"AGENT_CONFIGS" envDefault:"false"`
	AgentConfigFile     string                `env:"AGENT_CONFIGS_FILE"`
	AgentBootstrap      *AgentBootstrapConfig `env:"-"`

	// Background jobs
	ReconcileEnabled         bool          `env:"RECONCILE_ENABLED" envDefault:"true"`
	ReconcileIntervalMinutes int           `env:"RECONCILE_INTERVAL_MINUTES" envDefault:"5"`
	ReconcileBatchLimit      int           `env:"RECONCILE_BATCH_LIMIT" envDefault:"200"`
	ResendEnabled            bool          `env:"RESEND_ENABLED" envDefault:"true"`
	ResendIntervalMinutes    int           `env:"RESEND_INTERVAL_MINUTES" envDefault:"30"`
	ResendLookback           time.Duration `env:"RESEND_LOOKBACK" envDefault:"24h"`
	ResendPacing             time.Duration `env:"RESEND_PACING" envDefault:"1s"`

	// Rate limiting
	APIRateLimitPerMinute float64 `env:"API_RATE_LIMIT_PER_MINUTE" envDefault:"240"`

	// Observability / Logging
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string        `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"routing-api"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"leadchat"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.AgentConfigsEnabled {
		configFile := strings.TrimSpace(cfg.AgentConfigFile)
		if configFile == "" {
			configFile = DefaultAgentConfigFile
		}
		bootstrap, err := LoadAgentBootstrapConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("load agent configs: %w", err)
		}
		cfg.AgentBootstrap = bootstrap
	}

	if cfg.ReconcileBatchLimit <= 0 {
		return nil, fmt.Errorf("RECONCILE_BATCH_LIMIT must be positive, got %d", cfg.ReconcileBatchLimit)
	}
	if cfg.ResendPacing < time.Second {
		// The gateway throttles aggressively; never pace below one second.
		cfg.ResendPacing = time.Second
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.EnvReloadedAt = time.Now()

	globalConfig = cfg

	return cfg, nil
}

// GetGlobal returns the global config instance for backwards compatibility.
// Deprecated: Use dependency injection with Load() instead.
func GetGlobal() *Config {
	return globalConfig
}

// AgentBootstrapEntries returns the configured agent definitions.
func (c *Config) AgentBootstrapEntries() []AgentBootstrapEntry {
	if c == nil || c.AgentBootstrap == nil {
		return nil
	}
	return c.AgentBootstrap.Agents()
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
