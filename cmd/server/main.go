package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rentaride/service-booking/internal/application"
	"github.com/rentaride/service-booking/internal/config"
	"github.com/rentaride/service-booking/internal/domain/reward"
	bookingEvents "github.com/rentaride/service-booking/internal/events"
	"github.com/rentaride/service-booking/internal/handler"
	"github.com/rentaride/service-booking/internal/repository"
	"github.com/rentaride/service-booking/pkg/database"
	"github.com/rentaride/service-booking/pkg/kafka"
	"github.com/rentaride/service-booking/pkg/logger"
	"github.com/rentaride/service-booking/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run schema migration
	if err := db.AutoMigrate(
		&repository.VehicleModel{},
		&repository.AvailabilityWindowModel{},
		&repository.UserModel{},
		&repository.RewardEntryModel{},
		&repository.CouponModel{},
		&repository.BookingModel{},
		&repository.PaymentModel{},
	); err != nil {
		zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
	}
	zapLogger.Info("database migration completed")

	// Initialize Kafka producer and event publisher
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()
	publisher := bookingEvents.NewPublisher(kafkaProducer, cfg.KafkaConfig.Source, zapLogger)

	// Initialize repositories
	vehicleRepo := repository.NewVehicleRepository(db)
	userRepo := repository.NewUserRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize application services
	txm := database.NewTransactor(db)
	ledger := reward.NewLedger(cfg.RoyaltyPercent)

	reservationService := application.NewReservationService(
		txm, vehicleRepo, userRepo, couponRepo, bookingRepo, paymentRepo,
		ledger, publisher, zapLogger,
	)
	bookingService := application.NewBookingService(
		txm, vehicleRepo, userRepo, bookingRepo, paymentRepo,
		ledger, publisher, zapLogger,
	)
	couponService := application.NewCouponService(couponRepo, zapLogger)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(reservationService, bookingService)
	couponHandler := handler.NewCouponHandler(couponService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(zapLogger))
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.RequestID())

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "service-booking"})
	})

	// Register routes
	apiV1 := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(apiV1)
	couponHandler.RegisterRoutes(apiV1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-booking...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-booking stopped")
}
