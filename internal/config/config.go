package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/ride-assistant/internal/models"
)

const (
	androidEmulatorURL = "http://10.0.2.2:8000/api"
	localURL           = "http://localhost:8000/api"
	productionURL      = "https://your-production-api.com/api"
)

// ClientConfig captures every tunable of the client core and its web host.
// Values come from environment variables (optionally seeded by a .env file)
// with defaults that let the web host run against a local backend.
type ClientConfig struct {
	Platform             models.Platform
	BaseURL              string
	DevMode              bool
	MapsAPIKey           string
	HasEmbeddableBrowser bool

	DebounceDelay  time.Duration
	MinQueryLength int
	MaxSuggestions int
	HTTPTimeout    time.Duration

	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		Platform:        models.PlatformWeb,
		DevMode:         true,
		DebounceDelay:   300 * time.Millisecond,
		MinQueryLength:  3,
		MaxSuggestions:  5,
		HTTPTimeout:     10 * time.Second,
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// Default returns the built-in configuration with the base URL resolved.
func Default() ClientConfig {
	cfg := defaultClientConfig()
	cfg.BaseURL = ResolveBaseURL(cfg.Platform, cfg.DevMode)
	return cfg
}

// LoadClientConfig reads the configuration from the environment. A .env file
// in the working directory is loaded first if present; real environment
// variables take precedence over it.
func LoadClientConfig() (ClientConfig, error) {
	_ = godotenv.Load()

	cfg := defaultClientConfig()
	var errs []error

	if v := strings.TrimSpace(os.Getenv("PLATFORM")); v != "" {
		cfg.Platform = models.Platform(strings.ToLower(v))
	}
	setBoolFromEnv(&cfg.DevMode, "DEV_MODE", &errs)
	setStringFromEnv(&cfg.BaseURL, "BASE_URL")
	cfg.MapsAPIKey = strings.TrimSpace(os.Getenv("MAPS_API_KEY"))
	setBoolFromEnv(&cfg.HasEmbeddableBrowser, "EMBEDDABLE_BROWSER", &errs)

	setDurationFromEnv(&cfg.DebounceDelay, "DEBOUNCE_DELAY", &errs)
	setIntFromEnv(&cfg.MinQueryLength, "MIN_QUERY_LENGTH", &errs)
	setIntFromEnv(&cfg.MaxSuggestions, "MAX_SUGGESTIONS", &errs)
	setDurationFromEnv(&cfg.HTTPTimeout, "HTTP_TIMEOUT", &errs)

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = ResolveBaseURL(cfg.Platform, cfg.DevMode)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// Validate checks invariants the components rely on.
func (c ClientConfig) Validate() error {
	var errs []error
	if !c.Platform.Valid() {
		errs = append(errs, fmt.Errorf("PLATFORM must be one of web, ios, android; got %q", c.Platform))
	}
	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must not be empty"))
	}
	if c.DebounceDelay <= 0 {
		errs = append(errs, fmt.Errorf("DEBOUNCE_DELAY must be > 0"))
	}
	if c.MinQueryLength <= 0 {
		errs = append(errs, fmt.Errorf("MIN_QUERY_LENGTH must be > 0"))
	}
	if c.MaxSuggestions <= 0 {
		errs = append(errs, fmt.Errorf("MAX_SUGGESTIONS must be > 0"))
	}
	return errors.Join(errs...)
}

// ResolveBaseURL picks the backend URL for a platform. Android emulators
// reach the host machine through 10.0.2.2.
func ResolveBaseURL(p models.Platform, dev bool) string {
	if !dev {
		return productionURL
	}
	if p == models.PlatformAndroid {
		return androidEmulatorURL
	}
	return localURL
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setBoolFromEnv(target *bool, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}
