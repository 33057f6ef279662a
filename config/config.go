package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Env             string
	Port            string
	DBURL           string
	JWTSecret       string
	TokenLifetime   string
	BcryptCost      int
	RedisAddr       string
	RedisPassword   string
	RateLimitMax    int
	RateLimitWinSec int
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	FromEmail       string
	FrontendOrigin  string
}

func Load() *Config {
	return &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DBURL:           mustGetEnv("DB_URL"),
		JWTSecret:       mustGetEnv("JWT_SECRET"),
		TokenLifetime:   getEnv("JWT_EXPIRES_IN", "15m"),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 12),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX", 5),
		RateLimitWinSec: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 300),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASS", ""),
		FromEmail:       getEnv("FROM_EMAIL", "no-reply@example.com"),
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN", "*"),
	}
}

// IsProduction gates the Secure attribute on the session cookie.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
