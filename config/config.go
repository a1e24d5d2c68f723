package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	HTTPAddr      string
	AppURL        string
	HTTPBodyLimit string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// MQTT
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	// Storage
	StorageDisk       string
	StoragePublicRoot string
	StoragePublicURL  string
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKey       string
	S3SecretKey       string
	S3ForcePathStyle  bool
	S3PublicURL       string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Seeding
	SeedAdminName     string
	SeedAdminEmail    string
	SeedAdminPhone    string
	SeedAdminPassword string

	// Application
	UploadMaxBytes int64
	DefaultPerPage int
	MaxPerPage     int
	LogLevel       string
	OTelEndpoint   string
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "300"))
	jwtTTL, _ := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "1440"))
	uploadMax, _ := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	defaultPerPage, _ := strconv.Atoi(getEnv("DEFAULT_PER_PAGE", "15"))
	maxPerPage, _ := strconv.Atoi(getEnv("MAX_PER_PAGE", "100"))

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		AppURL:        strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		HTTPBodyLimit: getEnv("HTTP_BODY_LIMIT", "64M"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "robot_manager"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),

		RedisEnabled:  getBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		CacheTTL:      time.Duration(cacheTTL) * time.Second,

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "robot-manager"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "robots"),

		StorageDisk:       getEnv("STORAGE_DISK", "public"),
		StoragePublicRoot: getEnv("STORAGE_PUBLIC_ROOT", "./storage/app/public"),
		StoragePublicURL:  getEnv("STORAGE_PUBLIC_URL", "/storage"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		S3ForcePathStyle:  getBool("S3_FORCE_PATH_STYLE", true),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    time.Duration(jwtTTL) * time.Minute,

		SeedAdminName:     getEnv("SEED_ADMIN_NAME", "Admin"),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPhone:    getEnv("SEED_ADMIN_PHONE", ""),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),

		UploadMaxBytes: uploadMax,
		DefaultPerPage: defaultPerPage,
		MaxPerPage:     maxPerPage,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OTelEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
