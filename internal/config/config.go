package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the connection settings pingdeck needs to reach the
// control tower.
type Config struct {
	APIBase              string
	WSURL                string
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	HeartbeatInterval    time.Duration
}

const (
	defaultConfigPath    = "~/.config/pingdeck/config.toml"
	defaultAPIBase       = "127.0.0.1:8080"
	defaultWSURL         = "ws://127.0.0.1:8082/ws/dashboard"
	defaultReconnectSec  = 5
	defaultMaxReconnects = 10
	defaultHeartbeatSec  = 4
)

// Load locates and parses the pingdeck config, falling back to defaults
// when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase              string `toml:"api_base"`
		WSURL                string `toml:"ws_url"`
		ReconnectDelaySec    int    `toml:"reconnect_delay_sec"`
		MaxReconnectAttempts int    `toml:"max_reconnect_attempts"`
		HeartbeatSec         int    `toml:"heartbeat_sec"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(raw.WSURL); v != "" {
		cfg.WSURL = v
	}
	if raw.ReconnectDelaySec > 0 {
		cfg.ReconnectDelay = time.Duration(raw.ReconnectDelaySec) * time.Second
	}
	if raw.MaxReconnectAttempts != 0 {
		cfg.MaxReconnectAttempts = raw.MaxReconnectAttempts
	}
	if raw.HeartbeatSec > 0 {
		cfg.HeartbeatInterval = time.Duration(raw.HeartbeatSec) * time.Second
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		APIBase:              defaultAPIBase,
		WSURL:                defaultWSURL,
		ReconnectDelay:       defaultReconnectSec * time.Second,
		MaxReconnectAttempts: defaultMaxReconnects,
		HeartbeatInterval:    defaultHeartbeatSec * time.Second,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
