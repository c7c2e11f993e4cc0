package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	TryOnAPIBaseURL    string
	TryOnAPITimeout    time.Duration
	PollInterval       time.Duration
	ElapsedTick        time.Duration
	PollFailureLimit   int
	JobTimeout         time.Duration
	MaxUploadBytes     int64
	SessionTTL         time.Duration
	DatabaseURL        string
	NATSURL            string
	EventsSubject      string
	GeoIPDBPath        string
	CORSAllowedOrigins []string
	DefaultLocale      string
	StoragePath        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	LogRingSize        int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "3000"),
		TryOnAPIBaseURL:    strings.TrimRight(getEnv("TRYON_API_BASE_URL", "http://localhost:8080"), "/"),
		TryOnAPITimeout:    time.Second * time.Duration(getEnvInt("TRYON_API_TIMEOUT_SECONDS", 30)),
		PollInterval:       time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)),
		ElapsedTick:        time.Millisecond * time.Duration(getEnvInt("ELAPSED_TICK_MS", 1000)),
		PollFailureLimit:   getEnvInt("POLL_FAILURE_LIMIT", 0),
		JobTimeout:         time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 0)),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		SessionTTL:         time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		NATSURL:            os.Getenv("NATS_URL"),
		EventsSubject:      getEnv("EVENTS_SUBJECT", "tryon.events"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		StoragePath:        getEnv("STORAGE_PATH", "./data/results"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		LogRingSize:        getEnvInt("LOG_RING_SIZE", 100),
	}

	u, err := url.Parse(cfg.TryOnAPIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("TRYON_API_BASE_URL must be an absolute URL, got %q", cfg.TryOnAPIBaseURL)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.ElapsedTick <= 0 {
		return nil, fmt.Errorf("ELAPSED_TICK_MS must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if cfg.PollFailureLimit < 0 || cfg.JobTimeout < 0 {
		return nil, fmt.Errorf("POLL_FAILURE_LIMIT and JOB_TIMEOUT_SECONDS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
