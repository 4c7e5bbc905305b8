// Package config loads process configuration from the environment (and
// an optional .env file), per SPEC_FULL.md's AMBIENT STACK section.
// Grounded on joho/godotenv's usage in kadirpekel-hector, generalized
// from the teacher's functional-options idiom (graph/options.go) for the
// knobs that are environment-sourced rather than constructor arguments.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting this service reads.
// Defaults match spec.md §6.
type Config struct {
	CheckpointDSN   string
	CheckpointTTL   time.Duration
	Namespace       string
	RecursionLimit  int
	BindAddr        string
}

// Load reads environment variables, first loading a .env file if one is
// present in the working directory (godotenv.Load is a no-op, not an
// error, when the file is absent).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		CheckpointDSN:  getenv("WORKFLOW_CHECKPOINT_DSN", ""),
		CheckpointTTL:  time.Duration(getenvInt("WORKFLOW_CHECKPOINT_TTL_HOURS", 24)) * time.Hour,
		Namespace:      getenv("WORKFLOW_NAMESPACE", "langgraph"),
		RecursionLimit: getenvInt("WORKFLOW_RECURSION_LIMIT", 25),
		BindAddr:       getenv("WORKFLOW_BIND_ADDR", ":8001"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
