package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the API needs from the environment.
type Config struct {
	ListenAddr       string
	JWTSecret        string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	AppEnv           string
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig holds the Cloudinary credentials for signed uploads
// and server-side deletion.
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	UploadFolder string
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "swapsphere_user"),
		Password: getEnv("PGPASSWORD", "swapsphere_pass"),
		Name:     getEnv("PGDATABASE", "swapsphere"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "swapsphere"),
		UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "swapsphere"),
	}

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: cloudinaryConfig,
		AppEnv:           getEnv("APP_ENV", "production"),
	}

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	return cfg
}

// getEnv returns the environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
