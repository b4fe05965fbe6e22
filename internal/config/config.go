package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Booking  BookingConfig
	Payment  PaymentConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// BookingConfig holds reservation-flow configuration
type BookingConfig struct {
	// CutoffMinutes is the hard floor before departure after which same-day
	// bookings are rejected as closed
	CutoffMinutes int
	// TxTimeout bounds the booking transaction's wall clock
	TxTimeout time.Duration
	Currency  string
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	Gateway string // "razorpay" or "khalti"

	RazorpayKeyID  string
	RazorpaySecret string // shared secret for signature verification, never exposed

	KhaltiSecretKey string
	KhaltiBaseURL   string

	// ChargedCurrency is the currency the gateway settles in; when it differs
	// from Booking.Currency the amount is converted at ExchangeRate, captured
	// on the payment row at initiation
	ChargedCurrency string
	ExchangeRate    float64

	VerifyTimeout  time.Duration
	VerifyAttempts int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization"}),
		},
		Booking: BookingConfig{
			CutoffMinutes: getEnvAsInt("BOOKING_CUTOFF_MINUTES", 30),
			TxTimeout:     time.Duration(getEnvAsInt("BOOKING_TX_TIMEOUT_SECONDS", 30)) * time.Second,
			Currency:      getEnv("BOOKING_CURRENCY", "NPR"),
		},
		Payment: PaymentConfig{
			Gateway:         getEnv("PAYMENT_GATEWAY", "razorpay"),
			RazorpayKeyID:   getEnv("RAZORPAY_KEY_ID", ""),
			RazorpaySecret:  getEnv("RAZORPAY_SECRET", ""),
			KhaltiSecretKey: getEnv("KHALTI_SECRET_KEY", ""),
			KhaltiBaseURL:   getEnv("KHALTI_BASE_URL", "https://khalti.com/api/v2"),
			ChargedCurrency: getEnv("PAYMENT_CHARGED_CURRENCY", "INR"),
			ExchangeRate:    getEnvAsFloat("PAYMENT_EXCHANGE_RATE", 0.625),
			VerifyTimeout:   time.Duration(getEnvAsInt("PAYMENT_VERIFY_TIMEOUT_SECONDS", 15)) * time.Second,
			VerifyAttempts:  getEnvAsInt("PAYMENT_VERIFY_ATTEMPTS", 3),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a fallback
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float with a fallback
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice gets an environment variable as a comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
