// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"eduvision/internal/i18n"
)

// Config is the console's configuration.
type Config struct {
	Host          string
	Port          string
	APIURL        string
	SessionSecret string
	HTTPS         bool
	CSRF          bool
	APITimeout    time.Duration
	ResetDelay    time.Duration
	Language      i18n.Language
	PhonePrefix   string
	IdleTTL       time.Duration
}

func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func Load() (Config, error) {
	cfg := Config{
		Host:          getenv("HOST", "127.0.0.1"),
		Port:          getenv("PORT", "8080"),
		APIURL:        getenv("CRM_API_URL", "http://127.0.0.1:8000"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		HTTPS:         os.Getenv("APP_HTTPS") == "1",
		PhonePrefix:   getenv("PHONE_PREFIX", "+380"),
	}

	var err error
	if cfg.CSRF, err = getenvBool("CSRF_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.APITimeout, err = getenvDuration("API_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ResetDelay, err = getenvDuration("RESET_DELAY", 1500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.IdleTTL, err = getenvDuration("APP_IDLE_TTL", 2*time.Hour); err != nil {
		return Config{}, err
	}

	lang, ok := i18n.Parse(getenv("DEFAULT_LANG", string(i18n.Default)))
	if !ok {
		return Config{}, fmt.Errorf("config: DEFAULT_LANG: unsupported language %q", os.Getenv("DEFAULT_LANG"))
	}
	cfg.Language = lang

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("config: SESSION_SECRET is required")
	}
	return cfg, nil
}

// DevAPI is the configuration of the local stand-in backend.
type DevAPI struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
}

func LoadDevAPI() (DevAPI, error) {
	cfg := DevAPI{
		Addr:      getenv("DEVAPI_ADDR", "127.0.0.1:8000"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}
	var err error
	if cfg.TokenTTL, err = getenvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return DevAPI{}, err
	}
	if cfg.JWTSecret == "" {
		return DevAPI{}, fmt.Errorf("config: JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s: negative duration %s", k, v)
	}
	return d, nil
}

func getenvBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", k, err)
	}
	return b, nil
}
