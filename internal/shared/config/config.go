package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"docprep-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	APIKeys         []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	DatabaseURL string
	OplogStore  string
	SQLitePath  string

	LibreOfficePath   string
	ConversionTimeout time.Duration
	MaxUploadBytes    int64

	LogLevel string
	LogFile  string

	ReadinessThreshold int
	SegmentLimit       int
	WeightContent      float64
	WeightSegmentation float64
	WeightLanguage     float64
	WeightStructure    float64

	RateLimitRPS          float64
	RateLimitBurst        int
	ConvertRateLimitRPS   float64
	ConvertRateLimitBurst int
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"ENV":                      "dev",
	"CORS_ALLOW_ORIGINS":       "http://localhost:5173",
	"API_KEYS":                 "",
	"OBJECT_STORE":             "local",
	"LOCAL_STORE_DIR":          "./data",
	"OPLOG_STORE":              "",
	"SQLITE_PATH":              "./data/oplog.db",
	"CONVERSION_TIMEOUT":       "60s",
	"MAX_UPLOAD_BYTES":         25 << 20,
	"LOG_LEVEL":                "info",
	"READINESS_THRESHOLD":      80,
	"SEGMENT_LIMIT":            5000,
	"WEIGHT_CONTENT":           50.0,
	"WEIGHT_SEGMENTATION":      25.0,
	"WEIGHT_LANGUAGE":          15.0,
	"WEIGHT_STRUCTURE":         10.0,
	"RATE_LIMIT_RPS":           10.0,
	"RATE_LIMIT_BURST":         20,
	"CONVERT_RATE_LIMIT_RPS":   0.5,
	"CONVERT_RATE_LIMIT_BURST": 3,
}

// Load reads configuration from .env files and environment variables with sensible defaults.
// Environment variables take precedence over values from the files.
func Load() Config {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err == nil {
			telemetry.Debug("config.env_file", map[string]any{"path": path})
		}
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	timeout := v.GetDuration("CONVERSION_TIMEOUT")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		APIKeys:         splitAndTrim(v.GetString("API_KEYS")),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),

		DatabaseURL: dbURL,
		OplogStore:  normalizeOplogStore(v.GetString("OPLOG_STORE"), dbURL),
		SQLitePath:  v.GetString("SQLITE_PATH"),

		LibreOfficePath:   strings.TrimSpace(v.GetString("LIBREOFFICE_PATH")),
		ConversionTimeout: timeout,
		MaxUploadBytes:    v.GetInt64("MAX_UPLOAD_BYTES"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		ReadinessThreshold: v.GetInt("READINESS_THRESHOLD"),
		SegmentLimit:       v.GetInt("SEGMENT_LIMIT"),
		WeightContent:      v.GetFloat64("WEIGHT_CONTENT"),
		WeightSegmentation: v.GetFloat64("WEIGHT_SEGMENTATION"),
		WeightLanguage:     v.GetFloat64("WEIGHT_LANGUAGE"),
		WeightStructure:    v.GetFloat64("WEIGHT_STRUCTURE"),

		RateLimitRPS:          v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:        v.GetInt("RATE_LIMIT_BURST"),
		ConvertRateLimitRPS:   v.GetFloat64("CONVERT_RATE_LIMIT_RPS"),
		ConvertRateLimitBurst: v.GetInt("CONVERT_RATE_LIMIT_BURST"),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeOplogStore picks the operation log backend. An empty value means
// postgres when a database URL is configured and sqlite otherwise.
func normalizeOplogStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "sqlite":
		return "sqlite"
	case "memory":
		return "memory"
	default:
		if dbURL != "" {
			return "postgres"
		}
		return "sqlite"
	}
}
