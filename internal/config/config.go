package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Archive backends
const (
	ArchiveNone  = "none"
	ArchiveAzure = "azure"
	ArchiveMinIO = "minio"
)

type Config struct {
	Host               string
	Port               string
	ServiceVersion     string
	LogLevel           string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	MaxImagePixels     int
	AllowedExtensions  []string
	CORSAllowedOrigins []string
	PreviewEnabled     bool
	PreviewMaxChars    int
	ReportCacheSize    int
	Archive            ArchiveConfig
}

// ArchiveConfig selects where accepted uploads and their reports are copied
type ArchiveConfig struct {
	Backend string
	Azure   AzureConfig
	MinIO   MinIOConfig
}

type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "5000"),
		ServiceVersion:     getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		LogLevel:           strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 16*1024*1024), // 16MB
		MaxImagePixels:     int(parseIntOrDefault("MAX_IMAGE_PIXELS", 50_000_000)),
		AllowedExtensions:  parseListOrDefault("ALLOWED_EXTENSIONS", []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff"}),
		CORSAllowedOrigins: parseListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		PreviewEnabled:     parseBoolOrDefault("PREVIEW_ENABLED", true),
		PreviewMaxChars:    int(parseIntOrDefault("PREVIEW_MAX_CHARS", 100)),
		ReportCacheSize:    int(parseIntOrDefault("REPORT_CACHE_SIZE", 128)),
		Archive: ArchiveConfig{
			Backend: strings.ToLower(getEnvOrDefault("ARCHIVE_BACKEND", ArchiveNone)),
			Azure: AzureConfig{
				AccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
				AccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
				Container:   getEnvOrDefault("AZURE_STORAGE_CONTAINER", "uploads"),
			},
			MinIO: MinIOConfig{
				Endpoint:  os.Getenv("MINIO_ENDPOINT"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				Bucket:    getEnvOrDefault("MINIO_BUCKET", "uploads"),
				UseSSL:    parseBoolOrDefault("MINIO_USE_SSL", false),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout)
	}
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must not be empty")
	}
	if c.PreviewMaxChars < 0 {
		return fmt.Errorf("PREVIEW_MAX_CHARS must be >= 0 (got %d)", c.PreviewMaxChars)
	}
	if c.ReportCacheSize < 0 {
		return fmt.Errorf("REPORT_CACHE_SIZE must be >= 0 (got %d)", c.ReportCacheSize)
	}

	switch c.Archive.Backend {
	case ArchiveNone:
	case ArchiveAzure:
		if c.Archive.Azure.AccountName == "" || c.Archive.Azure.AccountKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for the azure archive")
		}
	case ArchiveMinIO:
		if c.Archive.MinIO.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the minio archive")
		}
		if c.Archive.MinIO.AccessKey == "" || c.Archive.MinIO.SecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio archive")
		}
	default:
		return fmt.Errorf("unsupported ARCHIVE_BACKEND: %q", c.Archive.Backend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
