package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret        string
	TokenRenewWindow time.Duration

	Port     string
	FrontURL string
	AppEnv   string

	StorageBackend     string
	StorageRoot        string
	BucketName         string
	GCSCredentialsFile string

	PhoneValidationURL    string
	PhoneValidationAPIKey string
}

const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

func LoadConfig() Config {
	return Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenRenewWindow: durationEnv("TOKEN_RENEW_WINDOW", 800*time.Second),

		Port:     getenv("PORT", "8080"),
		FrontURL: os.Getenv("FRONT_URL"),
		AppEnv:   os.Getenv("APP_ENV"),

		StorageBackend:     getenv("STORAGE_BACKEND", StorageLocal),
		StorageRoot:        getenv("STORAGE_ROOT", "."),
		BucketName:         os.Getenv("BUCKET_NAME"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),

		PhoneValidationURL:    os.Getenv("PHONE_VALIDATION_URL"),
		PhoneValidationAPIKey: os.Getenv("PHONE_VALIDATION_API_KEY"),
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// durationEnv accepts Go durations ("15m") or plain seconds ("800").
func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
