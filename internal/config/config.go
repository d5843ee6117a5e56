package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port        string
	Origin      string
	Environment string
	AppURL      string

	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	Uploads  UploadConfig
	Booking  BookingConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RedisConfig holds the redis connection used for chat pub/sub.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the broker and topic for appointment events.
type KafkaConfig struct {
	Broker string
	Topic  string
}

// PaymentConfig holds the external payment gateway settings.
type PaymentConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	// FeeAmount is the flat consultation fee in the gateway's
	// smallest currency unit.
	FeeAmount int64
}

// UploadConfig holds blob storage settings.
type UploadConfig struct {
	Dir     string
	BaseURL string
}

// BookingConfig holds booking policy switches.
type BookingConfig struct {
	// EnforceSlotUniqueness rejects a second active appointment for
	// the same doctor, date and time when enabled. Off by default:
	// overlapping consultations are allowed unless the deployment
	// opts in.
	EnforceSlotUniqueness bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "medibook"),
	}
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	feeAmount, err := strconv.ParseInt(getEnv("PAYMENT_FEE_AMOUNT", "20000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_FEE_AMOUNT: %w", err)
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("APP_ENV", "development"),
		AppURL:      getEnv("APP_URL", "http://localhost:3001"),

		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,

		Database: dbConfig,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:  getEnv("KAFKA_TOPIC", "appointment_events"),
		},
		Payment: PaymentConfig{
			BaseURL:   getEnv("PAYMENT_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:     getEnv("PAYMENT_KEY_ID", ""),
			KeySecret: getEnv("PAYMENT_KEY_SECRET", ""),
			FeeAmount: feeAmount,
		},
		Uploads: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./uploads"),
			BaseURL: getEnv("UPLOAD_BASE_URL", "/uploads"),
		},
		Booking: BookingConfig{
			EnforceSlotUniqueness: getEnv("BOOKING_ENFORCE_SLOT_UNIQUENESS", "false") == "true",
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
