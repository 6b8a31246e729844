// Package config handles process configuration
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Surface names accepted by SURFACE.
const (
	SurfaceWindow = "window"
	SurfaceWS     = "ws"
	SurfacePNG    = "png"
	SurfaceTerm   = "term"
)

type Config struct {
	NinjabrainURL      string
	FetchTimeout       time.Duration
	PollFastInterval   time.Duration
	PollIdleInterval   time.Duration
	RenderInterval     time.Duration
	BlindMaxTick       time.Duration
	CustomizationsPath string
	StateDBPath        string
	Surface            string
	WSAddr             string
	PNGOutputPath      string
	HealthAddr         string // empty disables the gRPC health service
	SentryDSN          string
	StatsviewAddr      string // empty disables the stats viewer
	LogLevel           slog.Level
}

// MaxFetchTimeout bounds each upstream request.
const MaxFetchTimeout = time.Second

func Load() *Config {
	cfgDir := userConfigDir()
	c := &Config{
		NinjabrainURL:      getEnv("NINJABRAIN_URL", "http://localhost:52533/api/v1"),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 500*time.Millisecond),
		PollFastInterval:   getEnvDuration("POLL_FAST_INTERVAL", 150*time.Millisecond),
		PollIdleInterval:   getEnvDuration("POLL_IDLE_INTERVAL", 500*time.Millisecond),
		RenderInterval:     getEnvDuration("RENDER_INTERVAL", 50*time.Millisecond),
		BlindMaxTick:       getEnvDuration("BLIND_MAX_TICK", time.Second),
		CustomizationsPath: getEnv("CUSTOMIZATIONS_PATH", filepath.Join(cfgDir, "customizations.json")),
		StateDBPath:        getEnv("STATE_DB_PATH", filepath.Join(cfgDir, "state.db")),
		Surface:            strings.ToLower(getEnv("SURFACE", SurfaceWindow)),
		WSAddr:             getEnv("WS_ADDR", "127.0.0.1:52534"),
		PNGOutputPath:      getEnv("PNG_OUTPUT_PATH", filepath.Join(os.TempDir(), "nbtrackr-overlay.png")),
		HealthAddr:         getEnv("HEALTH_ADDR", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		StatsviewAddr:      getEnv("STATSVIEW_ADDR", ""),
		LogLevel:           getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
	if c.FetchTimeout <= 0 || c.FetchTimeout > MaxFetchTimeout {
		c.FetchTimeout = MaxFetchTimeout
	}
	return c
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "NBTrackr")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts Go durations ("250ms") or bare milliseconds ("250").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms := getEnvInt(key, -1); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func getEnvLevel(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return lvl
}

// Debug reports whether verbose logging was requested through DEBUG=1.
func Debug() bool {
	return getEnvBool("DEBUG", false)
}
