package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spytro26/gantabya-sub000/internal/config"
	"github.com/spytro26/gantabya-sub000/internal/database"
	"github.com/spytro26/gantabya-sub000/internal/gateway"
	"github.com/spytro26/gantabya-sub000/internal/handlers"
	"github.com/spytro26/gantabya-sub000/internal/middleware"
	"github.com/spytro26/gantabya-sub000/internal/services"
	"github.com/spytro26/gantabya-sub000/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Gantabya Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	catalogRepo := database.NewCatalogRepository(db.DB)
	tripRepo := database.NewTripRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	offerRepo := database.NewOfferRepository(db.DB)
	paymentRepo := database.NewPaymentRepository(db.DB)

	// Initialize services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	notifier := services.NewLogNotifier(logger)
	offerService := services.NewOfferService(offerRepo, catalogRepo, tripRepo, logger)
	searchService := services.NewSearchService(tripRepo, catalogRepo, bookingRepo, logger)
	bookingService := services.NewBookingService(
		tripRepo,
		catalogRepo,
		bookingRepo,
		offerRepo,
		paymentRepo,
		offerService,
		notifier,
		cfg.Booking,
		logger,
	)

	var paymentGateway gateway.PaymentGateway
	switch cfg.Payment.Gateway {
	case "khalti":
		paymentGateway = gateway.NewKhaltiGateway(cfg.Payment.KhaltiSecretKey, cfg.Payment.KhaltiBaseURL, logger)
	default:
		paymentGateway = gateway.NewRazorpayGateway(cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpaySecret, logger)
	}
	logger.Infof("Payment gateway: %s", paymentGateway.Name())

	paymentService := services.NewPaymentService(
		paymentRepo,
		bookingService,
		paymentGateway,
		cfg.Payment,
		cfg.Booking.Currency,
		logger,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService)
	offerHandler := handlers.NewOfferHandler(offerService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	bookingHandler := handlers.NewBookingHandler(bookingService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Trip search and seat maps (public)
		trips := v1.Group("/trips")
		{
			trips.GET("/search", searchHandler.SearchTrip)
			trips.GET("/:id/seats", searchHandler.TripSeats)
		}

		// Coupon check (public)
		v1.POST("/offers/apply", offerHandler.Apply)

		// Payment flow (protected)
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			payments.POST("/initiate", paymentHandler.Initiate)
			payments.POST("/:id/verify", paymentHandler.Verify)
			payments.POST("/:id/confirm", paymentHandler.Confirm)
			payments.GET("/:id", paymentHandler.Get)
		}

		// Bookings (protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}
		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)
		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
