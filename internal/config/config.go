// Package config carries the process environment and the runtime-tunable
// settings file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the boot-time environment. Values here need a restart to
// change; runtime tunables live in Settings.
type Config struct {
	Addr              string
	AnalyzerURL       string
	CaptureStreamPath string
	ScenarioFile      string
	SettingsFile      string
}

// FromEnv loads .env if present and reads the environment.
func FromEnv() Config {
	_ = godotenv.Load() // loads .env

	return Config{
		Addr:              ":" + envOr("PORT", "8080"),
		AnalyzerURL:       envOr("ANALYZER_URL", "http://localhost:8000"),
		CaptureStreamPath: os.Getenv("CAPTURE_STREAM"),
		ScenarioFile:      os.Getenv("SCENARIO_FILE"),
		SettingsFile:      os.Getenv("SETTINGS_FILE"),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
