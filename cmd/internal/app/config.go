package app

import (
	"time"

	"sessiond/cmd/internal/geo"
	"sessiond/cmd/internal/storage"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Empty DatabaseURL runs every store in memory.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	DBSchema    string
	AutoMigrate bool

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// Optional; enables the geolocation cache.
	RedisURL    string
	GeoCacheTTL time.Duration

	IPLookupURL  string
	GeoLookupURL string
	GeoTimeout   time.Duration
	GeoRPM       int

	// If true, SESSIOND_TOKEN_HMAC_KEY must be set and session digests are HMAC-based.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SESSIOND_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("SESSIOND_LOG_LEVEL", "info"),
		LogFormat: EnvString("SESSIOND_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("SESSIOND_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SESSIOND_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SESSIOND_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SESSIOND_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SESSIOND_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("SESSIOND_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("SESSIOND_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SESSIOND_DB_MIN_CONNS", 0),
		DBSchema:    EnvString("SESSIOND_DB_SCHEMA", storage.DefaultSchema),
		AutoMigrate: EnvBool("SESSIOND_AUTO_MIGRATE", false),

		ReadinessRequireDB: EnvBool("SESSIOND_READINESS_REQUIRE_DB", false),

		RedisURL:    EnvString("SESSIOND_REDIS_URL", ""),
		GeoCacheTTL: EnvDuration("SESSIOND_GEO_CACHE_TTL", 24*time.Hour),

		IPLookupURL:  EnvString("SESSIOND_IP_LOOKUP_URL", geo.DefaultIPLookupURL),
		GeoLookupURL: EnvString("SESSIOND_GEO_LOOKUP_URL", geo.DefaultGeoLookupURL),
		GeoTimeout:   EnvDuration("SESSIOND_GEO_TIMEOUT", 3*time.Second),
		GeoRPM:       EnvInt("SESSIOND_GEO_RPM", 45),

		RequireTokenHMAC: EnvBool("SESSIOND_REQUIRE_TOKEN_HMAC", false),
	}
}
