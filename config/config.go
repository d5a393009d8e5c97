package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppMode           string
	GatewayPort       string
	APIBaseURL        string
	SocketURL         string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	JWTSecret         string
	SessionExpiryMin  int
	AdminEmail        string
	AdminPassword     string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	DatabaseURL       string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppMode:           getEnv("APP_MODE", "development"),
		GatewayPort:       getEnv("GATEWAY_PORT", "3000"),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:3000/api"),
		SocketURL:         getEnv("SOCKET_URL", "ws://localhost:3000/ws"),
		ReconnectAttempts: getEnvAsInt("RECONNECT_ATTEMPTS", 5),
		ReconnectDelay:    time.Duration(getEnvAsInt("RECONNECT_DELAY_MS", 1000)) * time.Millisecond,
		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		SessionExpiryMin:  getEnvAsInt("SESSION_EXPIRY_MIN", 720),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@legalaid.local"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
		RedisHost:         getEnv("REDIS_HOST", ""),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
