package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the process reads from the environment. Credentials
// come in as raw JSON so the container never needs a mounted key file.
type Config struct {
	ProjectID       string   `env:"FIREBASE_PROJECT_ID,required"`
	CredentialsJSON string   `env:"FIREBASE_CREDENTIALS_JSON,required"`
	DatabaseURL     string   `env:"FIREBASE_DATABASE_URL"`
	Port            string   `env:"PORT" envDefault:"8080"`
	CORSHosts       []string `env:"CORS_HOSTS" envSeparator:","`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`

	// Comma-separated Gemini keys. More than one key spreads quota; the pool
	// rotates through them and cools down keys that hit their limit.
	GeminiAPIKeys []string `env:"GEMINI_API_KEYS,required" envSeparator:","`
	GeminiRPM     int      `env:"GEMINI_RPM" envDefault:"60"`

	PolygonAPIKey string `env:"POLYGON_API_KEY"`
	// Polygon free tier allows 5 calls/min.
	PolygonRPM int `env:"POLYGON_RPM" envDefault:"5"`

	QuestionImageBucket string `env:"QUESTION_IMAGE_BUCKET"`

	// Disables the in-process job runner, for replicas that should only
	// serve HTTP.
	SchedulerDisabled bool `env:"SCHEDULER_DISABLED" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
