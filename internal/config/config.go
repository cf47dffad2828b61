package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all run settings, populated from environment variables.
// The window sizes and delays are tuned heuristics; they are configuration,
// not constants, so operators can adjust them without a rebuild.
type Config struct {
	InputPath               string
	OutputPath              string
	LocationCachePath       string
	ClassificationCachePath string
	GazetteerPath           string // optional YAML override for the built-in tables

	HTTPAddr        string // empty disables the observability server
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Enrichment windows.
	SummaryBudget        int
	ClassifierBodyWindow int
	ExclusionRadius      int
	ResolverBodyWindow   int

	// Geocoding fallback.
	GeocodeEnabled bool
	NominatimURL   string
	GeocodeTimeout time.Duration
	GeocodeDelay   time.Duration

	// Fallback classifier / analysis generation.
	GenAIKey        string
	GenAIModel      string
	GenAITimeout    time.Duration
	FallbackEnabled bool
	FallbackCooldown time.Duration
	FallbackRetries  int
	FallbackBackoff  time.Duration

	// Analysis command.
	AnalysisPath  string
	AnalysisDelay time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDurationEnv("GEOCODE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeDelay, err := parseDurationEnv("GEOCODE_DELAY", time.Second)
	if err != nil {
		return nil, err
	}
	genaiTimeout, err := parseDurationEnv("GENAI_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	fallbackCooldown, err := parseDurationEnv("FALLBACK_COOLDOWN", 5*time.Second)
	if err != nil {
		return nil, err
	}
	fallbackBackoff, err := parseDurationEnv("FALLBACK_BACKOFF", 10*time.Second)
	if err != nil {
		return nil, err
	}
	analysisDelay, err := parseDurationEnv("ANALYSIS_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}

	summaryBudget, err := parseIntEnv("SUMMARY_BUDGET", 400)
	if err != nil {
		return nil, err
	}
	classifierWindow, err := parseIntEnv("CLASSIFIER_BODY_WINDOW", 3000)
	if err != nil {
		return nil, err
	}
	exclusionRadius, err := parseIntEnv("EXCLUSION_RADIUS", 30)
	if err != nil {
		return nil, err
	}
	resolverWindow, err := parseIntEnv("RESOLVER_BODY_WINDOW", 800)
	if err != nil {
		return nil, err
	}
	fallbackRetries, err := parseIntEnv("FALLBACK_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	genaiKey := os.Getenv("GENAI_API_KEY")
	fallbackEnabled := genaiKey != ""
	if v := os.Getenv("FALLBACK_ENABLED"); v != "" {
		fallbackEnabled = v == "true"
	}
	geocodeEnabled := true
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	cfg := &Config{
		InputPath:               envOrDefault("INPUT_PATH", "otkes_db.json"),
		OutputPath:              envOrDefault("OUTPUT_PATH", "structured_data.json"),
		LocationCachePath:       envOrDefault("LOCATION_CACHE_PATH", "location_cache.json"),
		ClassificationCachePath: envOrDefault("CLASSIFICATION_CACHE_PATH", "classification_cache.json"),
		GazetteerPath:           os.Getenv("GAZETTEER_PATH"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SummaryBudget:        summaryBudget,
		ClassifierBodyWindow: classifierWindow,
		ExclusionRadius:      exclusionRadius,
		ResolverBodyWindow:   resolverWindow,

		GeocodeEnabled: geocodeEnabled,
		NominatimURL:   envOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		GeocodeTimeout: geocodeTimeout,
		GeocodeDelay:   geocodeDelay,

		GenAIKey:         genaiKey,
		GenAIModel:       envOrDefault("GENAI_MODEL", "gemini-2.5-flash"),
		GenAITimeout:     genaiTimeout,
		FallbackEnabled:  fallbackEnabled,
		FallbackCooldown: fallbackCooldown,
		FallbackRetries:  fallbackRetries,
		FallbackBackoff:  fallbackBackoff,

		AnalysisPath:  envOrDefault("ANALYSIS_PATH", "ai_analyses.json"),
		AnalysisDelay: analysisDelay,
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.FallbackEnabled && cfg.GenAIKey == "" {
		return nil, errors.New("FALLBACK_ENABLED is true but GENAI_API_KEY is not set")
	}
	if cfg.FallbackRetries < 1 {
		return nil, errors.New("FALLBACK_RETRIES must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
