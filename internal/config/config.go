// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// RedisAddr is the address of the shared geocode cache. Empty disables
	// the shared cache; the session-local cache still applies.
	RedisAddr string

	// KafkaBrokers is the list of brokers alert events are published to.
	// Empty disables publishing; transitions are logged instead.
	KafkaBrokers []string

	// KafkaAlertTopic is the topic alert events go to.
	// Defaults to "alerts.status-changed".
	KafkaAlertTopic string

	// GeocodeBaseURL is the Nominatim-compatible reverse-geocoding endpoint.
	// Defaults to the public OSM instance.
	GeocodeBaseURL string

	// GeocodeUserAgent identifies this deployment to the geocoding provider,
	// required by the public instance's usage policy.
	GeocodeUserAgent string

	// StatusCaution/Warning/Danger are the days-used cut-offs for the
	// compliance status buckets. Product-tuned, hence configurable.
	StatusCaution int
	StatusWarning int
	StatusDanger  int

	// PhotoGapDays and CalendarGapDays are the assembler merge tolerances.
	PhotoGapDays    int
	CalendarGapDays int

	// CalendarExportPath and PhotoExportPath locate the JSON export files
	// device data arrives through. Scans read them fresh each time.
	CalendarExportPath string
	PhotoExportPath    string

	// AlertInterval is how often the background alert evaluation runs.
	// Defaults to 6h.
	AlertInterval time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic:  getEnv("KAFKA_ALERT_TOPIC", "alerts.status-changed"),
		GeocodeBaseURL:   getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "schengen-keeper/1.0"),
		StatusCaution:    getEnvInt("STATUS_CAUTION_DAYS", 60),
		StatusWarning:    getEnvInt("STATUS_WARNING_DAYS", 75),
		StatusDanger:     getEnvInt("STATUS_DANGER_DAYS", 85),
		PhotoGapDays:     getEnvInt("PHOTO_GAP_DAYS", 2),
		CalendarGapDays:  getEnvInt("CALENDAR_GAP_DAYS", 1),

		CalendarExportPath: getEnv("CALENDAR_EXPORT_PATH", "data/calendar.json"),
		PhotoExportPath:    getEnv("PHOTO_EXPORT_PATH", "data/photos.json"),
		AlertInterval:      getEnvDuration("ALERT_INTERVAL", 6*time.Hour),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses an integer environment variable, falling back on absence
// or a malformed value.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration parses a time.Duration environment variable ("90m", "6h"),
// falling back on absence or a malformed value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
