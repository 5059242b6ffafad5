package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // container images often ship without zoneinfo

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
)

// Config 应用配置
type Config struct {
	Port     string
	Database database.Config

	JWTSecret    string
	AuthDisabled bool

	Location       *time.Location
	MaxWindowDays  int
	OrderingPolicy models.OrderingPolicy
	EventPolicy    service.EventPolicy

	RateLimitPerMinute int
	Monitoring         models.MonitoringSettings
	GeohashPrecision   int

	CatalogPath string
	LogLevel    log.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port: getEnv("PORT", ":8080"),
		Database: database.Config{
			Driver: getEnv("DB_DRIVER", database.DriverSQLite),
			Path:   getEnv("DB_PATH", "./data/perimeter.db"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		CatalogPath: os.Getenv("CATALOG_PATH"),
	}

	var err error
	switch cfg.Database.Driver {
	case database.DriverSQLite:
	case database.DriverPostgres:
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", database.DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.AuthDisabled, err = getBool("AUTH_DISABLED", false); err != nil {
		return nil, err
	}

	tz := getEnv("TIMEZONE", "America/Mexico_City")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.OrderingPolicy, err = models.ParseOrderingPolicy(getEnv("ORDERING_POLICY", string(models.LastWriteWins))); err != nil {
		return nil, fmt.Errorf("invalid ORDERING_POLICY: %w", err)
	}
	if cfg.EventPolicy, err = service.ParseEventPolicy(getEnv("EVENT_POLICY", "any")); err != nil {
		return nil, fmt.Errorf("invalid EVENT_POLICY: %w", err)
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"RATE_LIMIT_PER_MINUTE", 120, &cfg.RateLimitPerMinute},
		{"MONITOR_REFRESH_SECONDS", 300, &cfg.Monitoring.RefreshSeconds},
		{"PERSONNEL_CLUSTER_RADIUS", 40, &cfg.Monitoring.PersonnelClusterRadius},
		{"FACILITY_CLUSTER_RADIUS", 60, &cfg.Monitoring.FacilityClusterRadius},
		{"GEOHASH_PRECISION", 7, &cfg.GeohashPrecision},
		{"MAX_WINDOW_DAYS", 366, &cfg.MaxWindowDays},
	}
	for _, v := range ints {
		if *v.dest, err = getPositiveInt(v.key, v.def); err != nil {
			return nil, err
		}
	}
	if cfg.GeohashPrecision > 12 {
		return nil, fmt.Errorf("GEOHASH_PRECISION must be at most 12, got %d", cfg.GeohashPrecision)
	}

	if cfg.LogLevel, err = log.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getPositiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
