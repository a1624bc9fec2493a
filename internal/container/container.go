package container

import (
	"context"
	"fmt"

	"top10weather/internal/config"
	"top10weather/internal/repository"
	"top10weather/internal/service"
	"top10weather/internal/service/auth"
	"top10weather/internal/service/location"
	"top10weather/internal/service/weather"
	"top10weather/pkg/database"
	"top10weather/pkg/logger"
	"top10weather/pkg/mailer"
	"top10weather/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	VoteRepo    *repository.VoteRepository
	Services    *service.Services
	Voting      *service.VotingService
	Aggregation *service.AggregationService
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis is optional, voting works without caching.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	voteRepo := repository.NewVoteRepository(db)

	authService := auth.NewService(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseJWTSecret, cfg.ResetRedirectURL, log)
	weatherService := weather.NewService(cfg.WeatherAPIURL, cfg.WeatherAPIKey, log)
	locationService, err := location.NewService(cfg.NominatimURL, redisClient, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize location service: %w", err)
	}

	services := &service.Services{
		Auth:     authService,
		Weather:  weatherService,
		Location: locationService,
	}

	votingService := service.NewVotingService(voteRepo, locationService, redisClient, log.Logger)
	aggregationService := service.NewAggregationService(voteRepo, redisClient, log.Logger)

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		VoteRepo:    voteRepo,
		Services:    services,
		Voting:      votingService,
		Aggregation: aggregationService,
	}, nil
}

// NewReminderService wires the reminder job dependencies from the container.
func (c *Container) NewReminderService() *service.ReminderService {
	activityRepo := repository.NewActivityRepository(c.DB)
	mail := mailer.NewBrevoClient(c.Config.BrevoAPIURL, c.Config.BrevoAPIKey, mailer.Sender{
		Name:  c.Config.SenderName,
		Email: c.Config.SenderEmail,
	}, c.Logger)
	return service.NewReminderService(activityRepo, mail, c.Logger.Logger)
}

// Close releases held connections.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetWeatherService returns the weather service
func (c *Container) GetWeatherService() service.WeatherService {
	return c.Services.Weather
}

// GetLocationService returns the location service
func (c *Container) GetLocationService() service.LocationService {
	return c.Services.Location
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
