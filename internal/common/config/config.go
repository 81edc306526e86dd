package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	DBPath         string
	ArtifactPath   string
	MigrationsPath string
	PlanCatalog    string

	// GeneratorURL switches design generation to a remote HTTP service.
	// Empty means the in-process generator.
	GeneratorURL string
}

// Load reads configuration from the environment, after loading .env if
// one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		DBPath:         getEnv("DB_PATH", "data/db/plan-studio.db"),
		ArtifactPath:   getEnv("ARTIFACT_PATH", "data/db/plans.bolt"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations/001_init.sql"),
		PlanCatalog:    getEnv("PLAN_CATALOG", "config/plans.yaml"),
		GeneratorURL:   getEnv("GENERATOR_URL", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
