package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-telehealth-booking/config"
	deliveryHttp "go-telehealth-booking/internal/delivery/http"
	"go-telehealth-booking/internal/delivery/http/handler"
	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/infrastructure/cache"
	"go-telehealth-booking/internal/infrastructure/database"
	"go-telehealth-booking/internal/repository"
	"go-telehealth-booking/internal/service"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/jwt"
	"go-telehealth-booking/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Notifier    *service.AsyncNotifier
	Sweeper     *service.OrderSweeper
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	// Apply schema migrations before serving
	if err := database.RunMigrations(cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	app.initializeServer()

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initializeServer wires repositories, services, usecases and handlers into
// the HTTP server and background workers.
func (app *App) initializeServer() {
	cfg := app.Config
	db := app.DB
	redisClient := app.RedisClient
	log := logrus.StandardLogger()

	// Initialize JWT service and validator
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	doctorScheduleRepo := repository.NewDoctorScheduleRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	paymentOrderRepo := repository.NewPaymentOrderRepository()
	medicalRecordRepo := repository.NewMedicalRecordRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(db, log, auditLogRepo)
	mailer := service.NewSendGridMailer(cfg.Mail, cfg.App.BaseURL, log)
	notifier := service.NewAsyncNotifier(mailer, log)
	slotHolds := service.NewSlotHoldService(redisClient, log, cfg.Booking.SlotHoldTTL)
	gateway := service.NewRazorpayGateway(cfg.Payment, log)
	sweeper := service.NewOrderSweeper(db, log, paymentOrderRepo, slotHolds, cfg.Booking.SlotHoldTTL, cfg.Booking.SweepInterval)
	app.Notifier = notifier
	app.Sweeper = sweeper

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, patientProfileRepo, auditService, mailer, jwtService, redisClient, cfg.Booking.VerifyTokenTTL)
	doctorUsecase := usecase.NewDoctorUsecase(db, log, userRepo, doctorProfileRepo, auditService)
	patientUsecase := usecase.NewPatientUsecase(db, log, userRepo, patientProfileRepo)
	bookingUsecase := usecase.NewBookingUsecase(db, log, userRepo, doctorProfileRepo, doctorScheduleRepo, appointmentRepo, paymentOrderRepo,
		auditService, slotHolds, gateway, cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.Currency)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, auditService)
	prescriptionUsecase := usecase.NewPrescriptionUsecase(db, log, medicalRecordRepo, appointmentRepo, userRepo, auditService, notifier)
	adminUsecase := usecase.NewAdminUsecase(db, log, userRepo, doctorProfileRepo, auditService, authUsecase)
	scheduleUsecase := usecase.NewScheduleUsecase(db, log, doctorScheduleRepo, userRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(patientUsecase, customValidator)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	prescriptionHandler := handler.NewPrescriptionHandler(prescriptionUsecase, customValidator)
	adminHandler := handler.NewAdminHandler(adminUsecase)
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins)
	metricsMiddleware := middleware.NewMetricsMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler, doctorHandler, patientHandler, bookingHandler, appointmentHandler,
		prescriptionHandler, adminHandler, scheduleHandler, auditLogHandler,
		authMiddleware, corsMiddleware, metricsMiddleware,
	)

	app.Server = &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.App.Port),
		Handler: router.Setup(),
	}
}

// Run starts the HTTP server and background workers and handles graceful
// shutdown.
func (app *App) Run() {
	app.Sweeper.Start()

	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Stop workers before dropping connections: the notifier flushes its
	// queued emails, the sweeper finishes its current pass.
	app.Sweeper.Stop()
	app.Notifier.Stop()

	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
