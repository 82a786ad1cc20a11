package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/figsync/internal/classify"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port string

	// Auth
	FigsyncAPIKey string

	// Shared data store
	StoreBackend string
	SQLiteDir    string

	// Pathstore connection
	PathstoreURL    string
	PathstoreAPIKey string

	// Sessions
	SessionTTL time.Duration
	YieldDelay time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Default heading thresholds for new sessions
	Headings classify.HeadingSettings

	// Plugin window
	MinWindowWidth  int
	MinWindowHeight int

	LogLevel string

	// PDF
	PDFFallbackPdftotext bool
}

func defaults(v *viper.Viper) {
	h := classify.DefaultHeadings()
	v.SetDefault("port", "8091")
	v.SetDefault("store_backend", BackendMemory)
	v.SetDefault("sqlite_dir", "")
	v.SetDefault("pathstore_url", "http://localhost:8080")
	v.SetDefault("session_ttl", time.Hour)
	v.SetDefault("yield_delay", 10*time.Millisecond)
	v.SetDefault("max_upload_bytes", int64(52428800)) // 50MB
	v.SetDefault("heading_h1", h.H1)
	v.SetDefault("heading_h2", h.H2)
	v.SetDefault("heading_h3", h.H3)
	v.SetDefault("heading_h4", h.H4)
	v.SetDefault("min_window_width", 320)
	v.SetDefault("min_window_height", 240)
	v.SetDefault("log_level", "info")
	v.SetDefault("pdf_fallback_pdftotext", true)
}

// Load reads configuration from the environment and, when FIGSYNC_CONFIG
// names a file, from that file. Environment variables win.
func Load() (Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("FIGSYNC_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		FigsyncAPIKey: v.GetString("figsync_api_key"),

		StoreBackend: strings.ToLower(v.GetString("store_backend")),
		SQLiteDir:    v.GetString("sqlite_dir"),

		PathstoreURL:    v.GetString("pathstore_url"),
		PathstoreAPIKey: v.GetString("pathstore_api_key"),

		SessionTTL: v.GetDuration("session_ttl"),
		YieldDelay: v.GetDuration("yield_delay"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		Headings: classify.HeadingSettings{
			H1: v.GetFloat64("heading_h1"),
			H2: v.GetFloat64("heading_h2"),
			H3: v.GetFloat64("heading_h3"),
			H4: v.GetFloat64("heading_h4"),
		},

		MinWindowWidth:  v.GetInt("min_window_width"),
		MinWindowHeight: v.GetInt("min_window_height"),

		LogLevel: v.GetString("log_level"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.YieldDelay < 0 {
		cfg.YieldDelay = 0
	}

	return cfg, nil
}

// Validate checks settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.FigsyncAPIKey == "" {
		errs = append(errs, fmt.Errorf("FIGSYNC_API_KEY is required"))
	}
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendPathstore:
		if c.PathstoreAPIKey == "" {
			errs = append(errs, fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if err := c.Headings.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.MinWindowWidth <= 0 || c.MinWindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("minimum window size must be positive"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level; unknown names mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
