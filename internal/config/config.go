package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDatabaseURL    = "packetdrop.db"
	defaultListenAddr     = ":8080"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultJWTAccessTTL   = "24h"
	defaultStorageBackend = "disk"
	defaultUploadDir      = "uploads"
	defaultLogLevel       = "info"
	defaultLogOutput      = "console"
)

// Config is the immutable runtime configuration, loaded once at startup.
type Config struct {
	AppEnv         string
	ListenAddr     string
	DatabaseURL    string
	JWTSecret      string
	JWTAccessTTL   time.Duration
	StorageBackend string // "disk" or "s3"
	UploadDir      string
	S3Endpoint     string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool
	LogLevel       string
	LogOutput      string // "console" or a file path
	AdminRoster    AdminRoster
}

// AdminRoster is an immutable set of user ids that hold admin rights
// regardless of their stored role. Built once from ADMIN_IDS; never
// re-parsed after startup.
type AdminRoster struct {
	ids map[int64]struct{}
}

func NewAdminRoster(ids []int64) AdminRoster {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AdminRoster{ids: set}
}

func (r AdminRoster) Contains(id int64) bool {
	_, ok := r.ids[id]
	return ok
}

func (r AdminRoster) Len() int { return len(r.ids) }

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.ListenAddr = strings.TrimSpace(getEnv("LISTEN_ADDR", defaultListenAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultStorageBackend)))
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	cfg.S3Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	cfg.S3AccessKey = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY"))
	cfg.S3SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_KEY"))
	cfg.S3UseSSL = parseBoolEnv("S3_USE_SSL", "true")

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogOutput = strings.TrimSpace(getEnv("LOG_OUTPUT", defaultLogOutput))

	roster, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminRoster = roster

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	switch cfg.StorageBackend {
	case "disk":
		if cfg.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR must not be empty")
		}
	case "s3":
		if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: disk, s3")
	}

	if isProdLike(cfg.AppEnv) {
		if strings.TrimSpace(cfg.JWTSecret) == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func parseAdminIDs(raw string) (AdminRoster, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return AdminRoster{}, fmt.Errorf("invalid ADMIN_IDS entry %q", part)
		}
		ids = append(ids, id)
	}
	return NewAdminRoster(ids), nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
