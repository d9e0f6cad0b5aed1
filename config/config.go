package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and passed by value to everything that needs it.
type Config struct {
	Port           int
	DatabaseURL    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration
	EncryptionKey  string
	FrontendURL    string
	AllowedOrigins []string
	Storage        StorageConfig
	ResendAPIKey   string
	FromEmail      string
	RateLimit      int
	Production     bool
	LogLevel       string
	BackfillOwners bool
}

type StorageConfig struct {
	Driver      string // local or supabase
	Dir         string
	PublicURL   string
	Bucket      string
	SupabaseURL string
	SupabaseKey string
}

// Load reads flags first and falls back to environment variables.
// A .env file in the working directory is loaded when present.
func Load(args []string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	fs := flag.NewFlagSet("triptrack-api", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (postgres://... or sqlite://path)")
	fs.BoolVar(&cfg.BackfillOwners, "backfill-owners", false, "Assign owners to legacy rows and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}
	cfg.AccessTokenTTL = durationEnv("ACCESS_TOKEN_TTL", 24*time.Hour)
	cfg.SessionTTL = durationEnv("SESSION_TTL", 7*24*time.Hour)

	// Only needed for 2FA; checked when a secret is encrypted.
	cfg.EncryptionKey = os.Getenv("DATA_ENCRYPTION_KEY")

	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")
	cfg.AllowedOrigins = []string{cfg.FrontendURL}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	cfg.Storage = StorageConfig{
		Driver:      getEnv("STORAGE_DRIVER", "local"),
		Dir:         getEnv("STORAGE_DIR", "./data/storage"),
		PublicURL:   strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", "http://localhost:"+strconv.Itoa(cfg.Port)), "/"),
		Bucket:      getEnv("STORAGE_BUCKET", "user-photos"),
		SupabaseURL: strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseKey: os.Getenv("SUPABASE_SERVICE_KEY"),
	}
	if cfg.Storage.Driver == "supabase" && (cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "") {
		return Config{}, errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY required for supabase storage")
	}

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.FromEmail = getEnv("FROM_EMAIL", "TripTrack <noreply@triptrack.app>")

	cfg.RateLimit = 100
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return Config{}, errors.New("invalid RATE_LIMIT env variable")
		}
		cfg.RateLimit = limit
	}

	cfg.Production = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
