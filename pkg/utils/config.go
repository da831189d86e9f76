package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the process configuration, loaded from the environment.
// A missing AI credential disables the corresponding pipeline stage; it is
// never a startup failure.
type Config struct {
	Port     string
	Env      string // "production" or "development"
	DataDir  string
	ImageDir string

	SummarizerKey  string
	IllustratorKey string

	CheckInterval   time.Duration
	DigestInterval  time.Duration
	CleanupInterval time.Duration
	RetentionDays   int

	// Politeness delays between outbound requests within a run.
	BookDelay    time.Duration
	ChapterDelay time.Duration
}

// Load reads configuration from the environment with local-dev defaults.
func Load() Config {
	dataDir := os.Getenv("NOVELDIGEST_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		dataDir = filepath.Join(home, ".noveldigest")
	}

	imageDir := os.Getenv("NOVELDIGEST_IMAGE_DIR")
	if imageDir == "" {
		imageDir = filepath.Join(dataDir, "images")
	}

	summarizerKey := os.Getenv("OPENAI_API_KEY")
	illustratorKey := os.Getenv("NOVELDIGEST_IMAGE_KEY")
	if illustratorKey == "" {
		illustratorKey = summarizerKey
	}

	return Config{
		Port:     envString("NOVELDIGEST_PORT", "8080"),
		Env:      envString("NOVELDIGEST_ENV", "production"),
		DataDir:  dataDir,
		ImageDir: imageDir,

		SummarizerKey:  summarizerKey,
		IllustratorKey: illustratorKey,

		CheckInterval:   envDuration("NOVELDIGEST_CHECK_INTERVAL", 6*time.Hour),
		DigestInterval:  envDuration("NOVELDIGEST_DIGEST_INTERVAL", 24*time.Hour),
		CleanupInterval: envDuration("NOVELDIGEST_CLEANUP_INTERVAL", 7*24*time.Hour),
		RetentionDays:   envInt("NOVELDIGEST_RETENTION_DAYS", 90),

		BookDelay:    envDuration("NOVELDIGEST_BOOK_DELAY", 5*time.Second),
		ChapterDelay: envDuration("NOVELDIGEST_CHAPTER_DELAY", 2*time.Second),
	}
}

// Development reports whether the dev profile is active (pretty logs).
func (c Config) Development() bool {
	return c.Env == "development"
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
