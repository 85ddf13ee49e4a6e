package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"scamshield/internal/logger"
	"scamshield/internal/risk"
)

// Settings are the runtime tunables, hot-reloaded from a yaml file while
// the engine runs.
type Settings struct {
	Thresholds      risk.Thresholds `yaml:"thresholds"`
	Language        string          `yaml:"language"`
	ChunkDurationMs int             `yaml:"chunk_duration_ms"`
}

func DefaultSettings() Settings {
	return Settings{
		Thresholds:      risk.DefaultThresholds(),
		Language:        envOr("LANGUAGE", "en"),
		ChunkDurationMs: envInt("CHUNK_DURATION_MS", 5000),
	}
}

// LoadSettings reads the yaml file, filling absent fields with defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	if s.Language == "" {
		s.Language = "en"
	}
	if s.ChunkDurationMs <= 0 {
		s.ChunkDurationMs = 5000
	}
	if err := s.Thresholds.Validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("settings: %w", err)
	}
	return s, nil
}

// WatchSettings reloads the file on every change and hands the result to
// apply. The parent directory is watched because editors typically
// replace the file instead of writing it in place. Reload failures keep
// the previous settings.
func WatchSettings(ctx context.Context, path string, apply func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("settings watcher: %w", err)
	}

	log := logger.Component("config")
	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				s, err := LoadSettings(path)
				if err != nil {
					log.WithError(err).Warn("settings reload failed, keeping previous")
					continue
				}
				log.WithField("path", path).Info("settings reloaded")
				apply(s)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("settings watcher error")
			}
		}
	}()
	return nil
}
