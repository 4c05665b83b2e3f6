package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	"github.com/wms-platform/outbound-service/pkg/idempotency"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	"github.com/wms-platform/outbound-service/pkg/logging"
	"github.com/wms-platform/outbound-service/pkg/metrics"
	"github.com/wms-platform/outbound-service/pkg/middleware"
	"github.com/wms-platform/outbound-service/pkg/mongodb"
	"github.com/wms-platform/outbound-service/pkg/outbox"
	"github.com/wms-platform/outbound-service/pkg/tracing"

	"github.com/wms-platform/outbound-service/internal/api/handlers"
	"github.com/wms-platform/outbound-service/internal/application"
	"github.com/wms-platform/outbound-service/internal/domain"
	"github.com/wms-platform/outbound-service/internal/infrastructure/carriers"
	mongoRepo "github.com/wms-platform/outbound-service/internal/infrastructure/mongodb"
)

const serviceName = "outbound-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting outbound-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB with instrumentation
	config.MongoDB.PoolMonitor = mongodb.PoolMonitor(m)
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize idempotency indexes
	if err := idempotency.InitializeIndexes(ctx, instrumentedMongo.Database()); err != nil {
		logger.WithError(err).Warn("Failed to initialize idempotency indexes")
	} else {
		logger.Info("Idempotency indexes initialized")
	}

	// Initialize Kafka producer with instrumentation
	kafkaProducer := kafka.NewProducer(config.Kafka)
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	defer instrumentedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory("/outbound-service")

	// Initialize repositories with instrumented client and event factory
	db := instrumentedMongo.Database()
	inventoryRepo := mongoRepo.NewInventoryRepository(db, eventFactory)
	allocationRepo := mongoRepo.NewAllocationRepository(db, eventFactory)
	backorderRepo := mongoRepo.NewBackorderRepository(db, eventFactory)
	dockRepo := mongoRepo.NewDockRepository(db, eventFactory)
	scheduleRepo := mongoRepo.NewDockScheduleRepository(db, eventFactory)
	loadPlanRepo := mongoRepo.NewLoadPlanRepository(db, eventFactory)
	cartonTypeRepo := mongoRepo.NewCartonTypeRepository(db)
	packOrderRepo := mongoRepo.NewPackOrderRepository(db, eventFactory)
	checkRepo := mongoRepo.NewQualityCheckRepository(db, eventFactory)
	exceptionRepo := mongoRepo.NewQualityExceptionRepository(db, eventFactory)
	shipmentRepo := mongoRepo.NewShipmentRepository(db, eventFactory)
	manifestRepo := mongoRepo.NewManifestRepository(db)

	// Initialize idempotency repository
	idempotencyKeyRepo := idempotency.NewMongoKeyRepository(instrumentedMongo.Database())
	logger.Info("Idempotency repositories initialized")

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		inventoryRepo.GetOutboxRepository(),
		instrumentedProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize carrier adapters behind circuit breakers
	carrierServices := []domain.CarrierService{
		carriers.WithCircuitBreaker(carriers.NewUPSAdapter(
			getEnv("UPS_ACCESS_KEY", ""),
			getEnv("UPS_ACCOUNT_NUMBER", ""),
			getEnv("UPS_API_URL", "https://onlinetools.ups.com/api"),
		), logger.Logger),
		carriers.WithCircuitBreaker(carriers.NewFedExAdapter(
			getEnv("FEDEX_API_KEY", ""),
			getEnv("FEDEX_ACCOUNT_NUMBER", ""),
			getEnv("FEDEX_API_URL", "https://apis.fedex.com"),
		), logger.Logger),
	}
	logger.Info("Carrier adapters initialized", "carriers", len(carrierServices))

	// Initialize application services
	allocationService := application.NewAllocationApplicationService(
		inventoryRepo,
		allocationRepo,
		backorderRepo,
		instrumentedProducer,
		eventFactory,
		logger,
	)
	dockService := application.NewDockApplicationService(
		dockRepo,
		scheduleRepo,
		loadPlanRepo,
		instrumentedProducer,
		eventFactory,
		logger,
	)
	loadPlanService := application.NewLoadPlanApplicationService(
		loadPlanRepo,
		shipmentRepo,
		scheduleRepo,
		dockRepo,
		instrumentedProducer,
		eventFactory,
		logger,
	)
	packingService := application.NewPackingApplicationService(
		packOrderRepo,
		cartonTypeRepo,
		instrumentedProducer,
		eventFactory,
		logger,
	)
	qualityService := application.NewQualityApplicationService(
		checkRepo,
		exceptionRepo,
		packOrderRepo,
		shipmentRepo,
		instrumentedProducer,
		eventFactory,
		logger,
	)
	shippingService := application.NewShippingApplicationService(
		shipmentRepo,
		manifestRepo,
		carrierServices,
		instrumentedProducer,
		eventFactory,
		logger,
	)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware (includes recovery, request ID, correlation, logging, error handling)
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)

	// Initialize idempotency metrics
	idempotencyMetrics := idempotency.NewMetrics(nil)

	// Configure idempotency middleware
	middlewareConfig.IdempotencyConfig = &idempotency.Config{
		ServiceName:     serviceName,
		Repository:      idempotencyKeyRepo,
		RequireKey:      false,
		OnlyMutating:    true,
		MaxKeyLength:    255,
		LockTimeout:     5 * time.Minute,
		RetentionPeriod: 24 * time.Hour,
		MaxResponseSize: 1024 * 1024,
		Metrics:         idempotencyMetrics,
	}

	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return instrumentedMongo.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	api := router.Group("/api/v1")
	handlers.NewAllocationHandlers(allocationService, logger).RegisterRoutes(api)
	handlers.NewDockHandlers(dockService, logger).RegisterRoutes(api)
	handlers.NewLoadPlanHandlers(loadPlanService, logger).RegisterRoutes(api)
	handlers.NewPackingHandlers(packingService, logger).RegisterRoutes(api)
	handlers.NewQualityHandlers(qualityService, logger).RegisterRoutes(api)
	handlers.NewShippingHandlers(shippingService, logger).RegisterRoutes(api)

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8010"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "outbound_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
