package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"caddvault/internal/eventbus"
)

// Config represents the application configuration
type Config struct {
	Version    int              `json:"version"`
	Database   DatabaseSettings `json:"database"`
	PageSize   int              `json:"page_size"`
	DebounceMs int              `json:"debounce_ms"`
	TimeoutMs  int              `json:"fetch_timeout_ms"`
	UISettings UISettings       `json:"ui"`
}

// DatabaseSettings describes the hosted Postgres the catalog lives in.
type DatabaseSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslmode"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowDescriptions bool `json:"show_descriptions"`
	RestoreFilters   bool `json:"restore_filters"` // reload persisted filter state on start
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	// Create caddvault config directory
	appDir := filepath.Join(configDir, "caddvault")
	os.MkdirAll(appDir, 0755)

	return &configService{
		filePath: filepath.Join(appDir, "config.json"),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

// Load loads the configuration from file
func (cs *configService) Load() (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		cfg := DefaultConfig()

		if cs.bus != nil {
			cs.bus.Publish(eventbus.ConfigLoadedEvent{PageSize: cfg.PageSize})
		}

		return cfg, nil
	}

	cfg, err := cs.LoadFromPath(cs.filePath)
	if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{PageSize: cfg.PageSize})
	}

	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{})
	}

	return nil
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse config
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// An older or newer on-disk schema falls back to defaults cleanly.
	if cfg.Version != CurrentVersion {
		return DefaultConfig(), nil
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	// Ensure config directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal config to JSON
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CurrentVersion is the on-disk config schema version.
const CurrentVersion = 1

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Database: DatabaseSettings{
			Host:    "localhost",
			Port:    5432,
			Name:    "caddvault",
			User:    "caddvault",
			SSLMode: "require",
		},
		PageSize:   25,
		DebounceMs: 300,
		TimeoutMs:  10000,
		UISettings: UISettings{
			ShowDescriptions: true,
			RestoreFilters:   true,
		},
	}
}

// applyDefaults fills zero values that would make the app unusable.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.DebounceMs <= 0 {
		cfg.DebounceMs = def.DebounceMs
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = def.TimeoutMs
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = def.Database.Port
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = def.Database.SSLMode
	}
}
