package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPort           = "8080"
	defaultStorageRoot    = "./uploads"
	defaultQuotaBytes     = 10 << 30 // 10 GiB per owner unless a quota row says otherwise
	defaultMaxUploadBytes = 100 << 20
	defaultMaxPixels      = 64_000_000 // ~8000x8000, microscopy scans above this are rejected as too large
)

// Config holds everything the binaries read from the environment.
type Config struct {
	Port           string
	DatabaseURL    string
	StorageRoot    string // absolute path to the blob root
	JWTSecret      string
	DefaultQuota   int64 // fallback ceiling when an owner has no quota row
	MaxUploadBytes int64
	MaxPixels      int64 // decode refusal threshold for a single image
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT", defaultPort),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StorageRoot:    getenv("STORAGE_ROOT", defaultStorageRoot),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		DefaultQuota:   defaultQuotaBytes,
		MaxUploadBytes: defaultMaxUploadBytes,
		MaxPixels:      defaultMaxPixels,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if v := os.Getenv("DEFAULT_QUOTA_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DEFAULT_QUOTA_BYTES: %q", v)
		}
		cfg.DefaultQuota = n
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("MAX_PIXELS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_PIXELS: %q", v)
		}
		cfg.MaxPixels = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
