package infrastructure

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/infrastructure/crontab"
	"leadchat-server/services/routing-api/internal/infrastructure/database"
	"leadchat-server/services/routing-api/internal/infrastructure/database/repository"
	"leadchat-server/services/routing-api/internal/infrastructure/logger"
	"leadchat-server/services/routing-api/internal/infrastructure/transport/whatsapp"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the service logger from configuration
func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// ProvideDatabase provides a database connection
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.NewDB(cfg.DatabaseURL, cfg.DBPostgresqlRead1DSN)
	if err != nil {
		return nil, err
	}

	// Run migrations if AUTO_MIGRATE is enabled
	if cfg.AutoMigrate {
		log.Info().Msg("Running database migrations...")
		if err := database.AutoMigrate(db); err != nil {
			log.Error().Err(err).Msg("Failed to run database migrations")
			return nil, err
		}
		log.Info().Msg("Database migrations completed successfully")
	}

	return db, nil
}

// ProvideGatewayTransport wires the WhatsApp gateway client as the outbound
// transport.
func ProvideGatewayTransport(cfg *config.Config, log zerolog.Logger) delivery.Transport {
	return whatsapp.NewClient(cfg.GatewayBaseURL, cfg.GatewayTimeout, log)
}

// Infrastructure holds all infrastructure dependencies
type Infrastructure struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// NewInfrastructure creates a new infrastructure instance
func NewInfrastructure(db *gorm.DB, logger zerolog.Logger) *Infrastructure {
	return &Infrastructure{
		DB:     db,
		Logger: logger,
	}
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Logger
	ProvideLogger,

	// Database
	ProvideDatabase,

	// Repositories
	repository.RepositoryProvider,

	// Gateway transport
	ProvideGatewayTransport,

	// Background jobs
	crontab.NewCrontab,

	// Infrastructure struct
	NewInfrastructure,
)
