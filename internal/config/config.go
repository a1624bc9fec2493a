package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port              string
	AllowedOrigins    []string
	LogLevel          string
	Environment       string
	DatabaseURL       string
	RedisURL          string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	WeatherAPIURL     string
	WeatherAPIKey     string
	NominatimURL      string
	BrevoAPIURL       string
	BrevoAPIKey       string
	SenderName        string
	SenderEmail       string
	ResetRedirectURL  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "production"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		SupabaseURL:       getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		WeatherAPIURL:     getEnv("WEATHER_API_URL", "https://api.weatherapi.com/v1"),
		WeatherAPIKey:     getEnv("WEATHER_API_KEY", ""),
		NominatimURL:      getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		BrevoAPIURL:       getEnv("BREVO_API_URL", "https://api.brevo.com"),
		BrevoAPIKey:       getEnv("BREVO_API_KEY", ""),
		SenderName:        getEnv("SENDER_NAME", "top10weather.com"),
		SenderEmail:       getEnv("SENDER_EMAIL", "noreply@top10weather.com"),
		ResetRedirectURL:  getEnv("RESET_REDIRECT_URL", "https://top10weather.com/reset-password"),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
