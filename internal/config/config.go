package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Calculator storage backends.
const (
	CalcStorageFile     = "file"
	CalcStorageDatabase = "database"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Calc     CalcConfig
	Pantone  PantoneConfig
	Upload   UploadConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string
}

// SessionConfig configures the scs session cookie.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// CalcConfig selects where calculator state is persisted.
type CalcConfig struct {
	Storage   string
	StatePath string
	Debounce  time.Duration
}

// PantoneConfig points at an optional catalog file.
type PantoneConfig struct {
	CatalogPath string
	Watch       bool
}

// UploadConfig bounds multipart uploads (swatch photos, formula PDFs).
type UploadConfig struct {
	MaxBytes int64
}

// Load reads an optional .env file, inspects the environment and builds a
// Config value.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 0),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 0),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), 0),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 0),
	}
	cfg.Database.UseMock = parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), strings.TrimSpace(cfg.Database.URL) == "")

	cfg.Logging = LoggingConfig{
		Level: strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")),
	}

	cfg.Session = SessionConfig{
		Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
		CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "chromastudio_session"),
		CookieDomain: strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN")),
		CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), true),
	}

	cfg.Calc = CalcConfig{
		Storage:   strings.ToLower(strings.TrimSpace(firstNonEmpty(os.Getenv("CALC_STORAGE"), CalcStorageDatabase))),
		StatePath: firstNonEmpty(os.Getenv("CALC_STATE_PATH"), "./data/calc-state.json"),
		Debounce:  parseDurationWithDefault(os.Getenv("CALC_PERSIST_DEBOUNCE"), 300*time.Millisecond),
	}

	cfg.Pantone = PantoneConfig{
		CatalogPath: strings.TrimSpace(os.Getenv("PANTONE_CATALOG_PATH")),
		Watch:       parseBoolWithDefault(os.Getenv("PANTONE_CATALOG_WATCH"), false),
	}

	cfg.Upload = UploadConfig{
		MaxBytes: int64(parseIntWithDefault(os.Getenv("UPLOAD_MAX_BYTES"), 8<<20)),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	switch cfg.Calc.Storage {
	case CalcStorageFile, CalcStorageDatabase:
	default:
		return Config{}, fmt.Errorf("unknown calc storage %q", cfg.Calc.Storage)
	}
	if cfg.Calc.Debounce <= 0 {
		return Config{}, fmt.Errorf("calc persist debounce must be positive")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return Config{}, fmt.Errorf("upload size limit must be positive")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
