// Package config loads application settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.musicapp.yaml"

// Session store names.
const (
	StoreFile        = "file"
	StorePreferences = "preferences"
	StoreMemory      = "memory"
)

// Engine names.
const (
	EngineBeep = "beep"
	EngineMock = "mock"
)

// Config is the full application configuration.
type Config struct {
	AppID   string        `yaml:"app_id"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Session SessionConfig `yaml:"session"`
	Player  PlayerConfig  `yaml:"player"`
	Log     LogConfig     `yaml:"log"`
}

// AuthConfig configures the auth endpoint.
type AuthConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CatalogConfig configures where the catalog CSV comes from.
type CatalogConfig struct {
	// Source is a file path, an http(s) URL or s3://bucket/key.
	Source  string        `yaml:"source"`
	Timeout time.Duration `yaml:"timeout"`
	S3      S3Config      `yaml:"s3"`
}

// S3Config holds S3 connection settings.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	Store string        `yaml:"store"`
	Path  string        `yaml:"path"`
	TTL   time.Duration `yaml:"ttl"`
}

// PlayerConfig configures playback.
type PlayerConfig struct {
	Engine           string        `yaml:"engine"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	SampleRate       int           `yaml:"sample_rate"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AppID: "com.formleszs.musicapp",
		Auth: AuthConfig{
			BaseURL: "http://localhost:8001",
			Timeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Source:  "fake_tracks.csv",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Store: StoreFile,
			Path:  "~/.musicapp/session.yaml",
			TTL:   30 * 24 * time.Hour,
		},
		Player: PlayerConfig{
			Engine:           EngineBeep,
			ProgressInterval: time.Second,
			SampleRate:       44100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath; a
// missing file is not an error. Home-relative paths are expanded.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(expanded)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", expanded, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", expanded, err)
		}
	}

	if cfg.Session.Path, err = ExpandHome(cfg.Session.Path); err != nil {
		return Config{}, err
	}
	if !isRemote(cfg.Catalog.Source) {
		if cfg.Catalog.Source, err = ExpandHome(cfg.Catalog.Source); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown names and non-positive durations.
func (c Config) Validate() error {
	var errs []error

	switch c.Session.Store {
	case StoreFile, StorePreferences, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("session.store: unknown store %q", c.Session.Store))
	}
	if c.Session.Store == StoreFile && c.Session.Path == "" {
		errs = append(errs, errors.New("session.path: required for the file store"))
	}
	switch c.Player.Engine {
	case EngineBeep, EngineMock:
	default:
		errs = append(errs, fmt.Errorf("player.engine: unknown engine %q", c.Player.Engine))
	}
	if strings.TrimSpace(c.Catalog.Source) == "" {
		errs = append(errs, errors.New("catalog.source: required"))
	}
	if strings.TrimSpace(c.Auth.BaseURL) == "" {
		errs = append(errs, errors.New("auth.base_url: required"))
	}

	for name, d := range map[string]time.Duration{
		"auth.timeout":             c.Auth.Timeout,
		"catalog.timeout":          c.Catalog.Timeout,
		"session.ttl":              c.Session.TTL,
		"player.progress_interval": c.Player.ProgressInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, d))
		}
	}
	if c.Player.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("player.sample_rate: must be positive, got %d", c.Player.SampleRate))
	}

	return errors.Join(errs...)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func isRemote(source string) bool {
	return strings.Contains(source, "://")
}
