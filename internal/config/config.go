// Package config loads the console settings from an optional yaml file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8080
	DefaultDBPath       = "nexus-console.db"
	DefaultPollInterval = 5 * time.Second
)

// Config holds the console settings. Environment variables override the file.
type Config struct {
	Host         string
	Port         int
	DBPath       string
	AdminToken   string // empty: use the token stored in the database
	PollInterval time.Duration
	Source       string // config file the values were read from, if any
}

type fileConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	DB           string `yaml:"db"`
	AdminToken   string `yaml:"admin_token"`
	PollInterval string `yaml:"poll_interval"`
}

// Addr is the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Load reads the config file (if one is found) and applies NEXUS_CONSOLE_* overrides.
func Load() (Config, error) {
	cfg := Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		DBPath:       DefaultDBPath,
		PollInterval: DefaultPollInterval,
	}

	path, err := resolveConfigPath()
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.Source = path
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read console config %q: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse console config %q: %w", path, err)
	}

	if v := strings.TrimSpace(fc.Host); v != "" {
		cfg.Host = v
	}
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if v := strings.TrimSpace(fc.DB); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(fc.AdminToken); v != "" {
		cfg.AdminToken = v
	}
	if v := strings.TrimSpace(fc.PollInterval); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("console config %q: poll_interval: %w", path, err)
		}
		cfg.PollInterval = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := env("NEXUS_CONSOLE_HOST"); v != "" {
		cfg.Host = v
	}
	if v := env("NEXUS_CONSOLE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("NEXUS_CONSOLE_PORT: invalid port %q", v)
		}
		cfg.Port = port
	}
	if v := env("NEXUS_CONSOLE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := env("NEXUS_CONSOLE_ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := env("NEXUS_CONSOLE_POLL_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("NEXUS_CONSOLE_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	return nil
}

// parseInterval accepts a Go duration or a bare number of seconds.
func parseInterval(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(secs) + "s"
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", raw)
	}
	return d, nil
}

func resolveConfigPath() (string, error) {
	if explicit := env("NEXUS_CONSOLE_CONFIG"); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	candidates := []string{
		"config/nexus-console.yaml",
		"/etc/nexus/console.yaml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "nexus", "console.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
