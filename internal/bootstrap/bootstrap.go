// Package bootstrap wires configuration, storage, services and routes together.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/thapar/projectportal/internal/app/controllers"
	appMigrations "github.com/thapar/projectportal/internal/app/migrations"
	appRepos "github.com/thapar/projectportal/internal/app/repositories"
	appRoutes "github.com/thapar/projectportal/internal/app/routes"
	appServices "github.com/thapar/projectportal/internal/app/services"
	"github.com/thapar/projectportal/internal/config"
	"github.com/thapar/projectportal/internal/db"
	appMiddleware "github.com/thapar/projectportal/internal/middleware"
	pkgAuth "github.com/thapar/projectportal/internal/pkg/auth"
	"github.com/thapar/projectportal/internal/pkg/email"
	"github.com/thapar/projectportal/internal/pkg/filestorage"
	"github.com/thapar/projectportal/internal/pkg/helpers"
	"github.com/thapar/projectportal/internal/pkg/logger"
	"github.com/thapar/projectportal/internal/pkg/otp"
	"github.com/thapar/projectportal/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService         appServices.AuthService
	UserService         appServices.UserService
	ProjectService      appServices.ProjectService
	NotificationService appServices.NotificationService
	SearchService       appServices.SearchService

	AuthController         *appControllers.AuthController
	ProfileController      *appControllers.ProfileController
	ProjectController      *appControllers.ProjectController
	NotificationController *appControllers.NotificationController
	SearchController       *appControllers.SearchController

	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	EmailService   email.EmailService
	OTPStore       otp.Store
	FileStorage    *filestorage.LocalStorage
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds defaults.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Pool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), database, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// SetupRedis connects the Redis client used for one-time login codes.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		lgr.Error().Err(err).Str("addr", cfg.GetRedisAddr()).Msg("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	lgr.Info().Str("addr", cfg.GetRedisAddr()).Msg("Redis connection established")
	return client, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)

	// File storage served under /uploads by the HTTP server
	storageBaseURL := cfg.Storage.BaseURL
	if storageBaseURL == "" {
		storageBaseURL = "http://localhost:" + cfg.Server.Port + "/uploads"
	}
	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, storageBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.SMTP.BaseURL,
	}, lgr)

	deps.OTPStore = otp.NewRedisStore(redisClient)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.Repos.PasswordResetTokenRepository,
		deps.JWTService,
		deps.OTPStore,
		deps.EmailService,
	)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, deps.FileStorage)
	deps.ProjectService = appServices.NewProjectService(
		deps.Repos.ProjectRepository,
		deps.Repos.TeamRepository,
		deps.Repos.UserRepository,
		deps.EmailService,
	)
	deps.NotificationService = appServices.NewNotificationService(deps.Repos.NotificationRepository)
	deps.SearchService = appServices.NewSearchService(deps.Repos.UserRepository, deps.Repos.ProjectRepository)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, deps.UserService, lgr)
	deps.ProfileController = appControllers.NewProfileController(deps.UserService, lgr)
	deps.ProjectController = appControllers.NewProjectController(deps.ProjectService, lgr)
	deps.NotificationController = appControllers.NewNotificationController(deps.NotificationService)
	deps.SearchController = appControllers.NewSearchController(deps.SearchService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ProfileController,
		deps.ProjectController,
		deps.NotificationController,
		deps.SearchController,
		deps.AuthMiddleware,
	)

	return router
}
