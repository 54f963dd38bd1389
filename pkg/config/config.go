package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Pipeline PipelineConfig
	JWT      JWTConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// PipelineConfig sizes the batch loop of each stage.
type PipelineConfig struct {
	ExtractBatchSize   int `validate:"gte=1"`
	NormalizeBatchSize int `validate:"gte=1"`
	FactBatchSize      int `validate:"gte=1"`
	DimensionPageSize  int `validate:"gte=1"`
}

type JWTConfig struct {
	SecretKey string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Sales Warehouse ETL"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "sales_warehouse"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			Database:   getEnv("MONGO_DATABASE", "sales"),
			Collection: getEnv("MONGO_COLLECTION", "sales_events"),
		},
		Pipeline: PipelineConfig{
			ExtractBatchSize:   getEnvInt("ETL_EXTRACT_BATCH_SIZE", 10000),
			NormalizeBatchSize: getEnvInt("ETL_NORMALIZE_BATCH_SIZE", 10000),
			FactBatchSize:      getEnvInt("ETL_FACT_BATCH_SIZE", 10000),
			DimensionPageSize:  getEnvInt("ETL_DIMENSION_PAGE_SIZE", 10000),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Mongo.URI == "" {
		return nil, errors.New("missing mongo uri")
	}

	validate := validator.New()
	if err := validate.Struct(cfg.Pipeline); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
