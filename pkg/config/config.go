package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Redis    RedisConfig    `yaml:"redis"`
	Engine   EngineConfig   `yaml:"engine"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// UpstreamConfig scheduling/persistence service configuration
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	StreamPath     string `yaml:"stream_path"`     // websocket push channel path, station id appended
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per-request timeout
	RetryCount     int    `yaml:"retry_count"`
}

// RedisConfig Redis configuration (reset marker storage; optional)
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EngineConfig intervals for the recurring drivers and the transport.
// The break watch interval here is the single source of truth; nothing in
// the engine hard-codes it.
type EngineConfig struct {
	StatusSyncSeconds       int `yaml:"status_sync_seconds"`       // default 60
	BreakWatchSeconds       int `yaml:"break_watch_seconds"`       // default 15
	AutoAssignSeconds       int `yaml:"auto_assign_seconds"`       // default 180
	HeartbeatSeconds        int `yaml:"heartbeat_seconds"`         // default 5
	HeartbeatTimeoutSeconds int `yaml:"heartbeat_timeout_seconds"` // default 30
	PollFallbackSeconds     int `yaml:"poll_fallback_seconds"`     // default 30
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// StatusSyncInterval returns the status sync interval with its default.
func (e EngineConfig) StatusSyncInterval() time.Duration {
	return secondsOr(e.StatusSyncSeconds, 60)
}

// BreakWatchInterval returns the break watch interval with its default.
func (e EngineConfig) BreakWatchInterval() time.Duration {
	return secondsOr(e.BreakWatchSeconds, 15)
}

// AutoAssignInterval returns the auto-assignment interval with its default.
func (e EngineConfig) AutoAssignInterval() time.Duration {
	return secondsOr(e.AutoAssignSeconds, 180)
}

// HeartbeatInterval returns the watchdog check interval with its default.
func (e EngineConfig) HeartbeatInterval() time.Duration {
	return secondsOr(e.HeartbeatSeconds, 5)
}

// HeartbeatTimeout returns the silence window that forces a reconnect.
func (e EngineConfig) HeartbeatTimeout() time.Duration {
	return secondsOr(e.HeartbeatTimeoutSeconds, 30)
}

// PollFallbackInterval returns the fallback polling interval with its default.
func (e EngineConfig) PollFallbackInterval() time.Duration {
	return secondsOr(e.PollFallbackSeconds, 30)
}

func secondsOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	GlobalConfig = &cfg
	return nil
}
