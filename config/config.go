package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	JWTSecret     string
	LogLevel      string
	CORSOrigins   []string
	CycleStore    string
	CycleStoreDir string
	RedisURL      string
	SaveDebounce  time.Duration
	AWSRegion     string
	S3Bucket      string
	ExportBaseURL string
	SESEmail      string
	SNSFCMArn     string
	ReminderCron  string
}

// Load reads .env when present, then the process environment. Missing
// required keys are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	must := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	cfg := &Config{
		Port:          get("PORT", "8080"),
		Env:           get("APP_ENV", "production"),
		DatabaseURL:   databaseURL(),
		JWTSecret:     must("JWT_SECRET"),
		LogLevel:      get("LOG_LEVEL", "info"),
		CORSOrigins:   splitList(get("CORS_ORIGINS", "http://localhost:3000")),
		CycleStore:    strings.ToLower(get("CYCLE_STORE", "file")),
		CycleStoreDir: get("CYCLE_STORE_DIR", "./data/cycle-records"),
		RedisURL:      get("REDIS_URL", ""),
		AWSRegion:     get("AWS_REGION", ""),
		S3Bucket:      get("S3_BUCKET", ""),
		ExportBaseURL: get("EXPORT_BASE_URL", ""),
		SESEmail:      get("SES_EMAIL", ""),
		SNSFCMArn:     get("SNS_FCM_ARN", ""),
		ReminderCron:  get("REMINDER_CRON", "0 8 * * *"),
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing env %s", strings.Join(missing, ", "))
	}

	d, err := time.ParseDuration(get("SAVE_DEBOUNCE", "500ms"))
	if err != nil {
		return nil, fmt.Errorf("SAVE_DEBOUNCE: %w", err)
	}
	cfg.SaveDebounce = d

	switch cfg.CycleStore {
	case "file", "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("CYCLE_STORE=redis needs REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown CYCLE_STORE %q", cfg.CycleStore)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	if os.Getenv("DB_HOST") == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		get("DB_PORT", "5432"),
		get("DB_SSLMODE", "disable"),
	)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
