package config

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/models"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
)

var keys = []string{
	"PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET", "AUTH_DISABLED",
	"TIMEZONE", "ORDERING_POLICY", "EVENT_POLICY", "RATE_LIMIT_PER_MINUTE",
	"MONITOR_REFRESH_SECONDS", "PERSONNEL_CLUSTER_RADIUS", "FACILITY_CLUSTER_RADIUS",
	"GEOHASH_PRECISION", "MAX_WINDOW_DAYS", "CATALOG_PATH", "LOG_LEVEL",
}

// clearEnv blanks every key for the test and runs from an empty directory so
// no stray .env file is picked up
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/perimeter.db", cfg.Database.Path)
	assert.False(t, cfg.AuthDisabled)
	assert.Equal(t, "America/Mexico_City", cfg.Location.String())
	assert.Equal(t, models.LastWriteWins, cfg.OrderingPolicy)
	assert.IsType(t, service.AnyTransition{}, cfg.EventPolicy)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, models.MonitoringSettings{
		RefreshSeconds:         300,
		PersonnelClusterRadius: 40,
		FacilityClusterRadius:  60,
	}, cfg.Monitoring)
	assert.Equal(t, 7, cfg.GeohashPrecision)
	assert.Equal(t, 366, cfg.MaxWindowDays)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://app@localhost/perimeter")
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ORDERING_POLICY", "reject-stale")
	t.Setenv("EVENT_POLICY", "alternating")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("PERSONNEL_CLUSTER_RADIUS", "25")
	t.Setenv("MAX_WINDOW_DAYS", "31")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://app@localhost/perimeter", cfg.Database.URL)
	assert.True(t, cfg.AuthDisabled)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, models.RejectStale, cfg.OrderingPolicy)
	assert.IsType(t, service.AlternatingPerimeter{}, cfg.EventPolicy)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.Equal(t, 25, cfg.Monitoring.PersonnelClusterRadius)
	assert.Equal(t, 31, cfg.MaxWindowDays)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DB_DRIVER", "mysql"},
		{"postgres without url", "DB_DRIVER", "postgres"},
		{"bad bool", "AUTH_DISABLED", "maybe"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus"},
		{"unknown ordering", "ORDERING_POLICY", "first-write-wins"},
		{"unknown event policy", "EVENT_POLICY", "strict"},
		{"non-numeric int", "RATE_LIMIT_PER_MINUTE", "lots"},
		{"zero int", "MONITOR_REFRESH_SECONDS", "0"},
		{"geohash too long", "GEOHASH_PRECISION", "13"},
		{"negative window", "MAX_WINDOW_DAYS", "-5"},
		{"bad log level", "LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
