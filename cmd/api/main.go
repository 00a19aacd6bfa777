package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/config"
	orgrepo "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/internal/repositories/org"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/database"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/events"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/kafka"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/metadata"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/middleware"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/redis"
	healthroutes "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/routes/health"
	orgroutes "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/routes/org"
	templateroutes "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/routes/template"
	validationroutes "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/routes/validation"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/templates"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if cfg.TracingEnabled {
		tracing.Init(cfg.AppName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	if cfg.PrettyLogs {
		zapLogger, _ = zap.NewDevelopment()
	} else {
		zapLogger, _ = zap.NewProduction()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	db, err := database.Connect(ctx, database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return err
	}

	orgRepository := orgrepo.NewRepository(db, logger)
	manager := salesforce.NewManager(logger, orgRepository)

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		manager.WithDecorator(func(orgID string, client salesforce.Client) salesforce.Client {
			return metadata.WrapClient(client, redisClient, orgID, cfg.DescribeCacheTTL, logger)
		})
	}

	registry := templates.NewRegistry()

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}
	if err := registerDependencies(container, logger, orgRepository, manager, registry, emitter); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Inject(container))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(echomiddleware.Recover())

	checker := healthroutes.NewChecker(healthroutes.PingerFunc(db.PingContext), redisPinger(redisClient), version)
	checker.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	orgroutes.Register(api.Group("/orgs"))
	templateroutes.Register(api.Group("/templates"))
	validationroutes.Register(api.Group("/validations"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down server cleanly")
		}
	}()

	checker.SetReady(true)
	logger.Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
	if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func registerDependencies(
	container ectocontainer.DIContainer,
	logger ectologger.Logger,
	orgRepository *orgrepo.Repository,
	manager *salesforce.Manager,
	registry *templates.Registry,
	emitter *events.Emitter,
) error {
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*orgrepo.Repository](container, orgRepository); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*salesforce.Manager](container, manager); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*templates.Registry](container, registry); err != nil {
		return err
	}
	if emitter != nil {
		if err := ectoinject.RegisterInstance[*events.Emitter](container, emitter); err != nil {
			return err
		}
	}
	return nil
}

func redisPinger(client *redis.Client) healthroutes.Pinger {
	if client == nil {
		return nil
	}
	return client
}
