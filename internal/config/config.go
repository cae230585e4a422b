package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "cardfeed"

// Config represents the application configuration
type Config struct {
	Language          string  `toml:"language"`
	Lookahead         int     `toml:"lookahead"`
	RequestTimeout    string  `toml:"request_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	ArtWidth          int     `toml:"art_width"`
	ArtHeight         int     `toml:"art_height"`
	ArtCacheSize      int     `toml:"art_cache_size"`
	ColdStartPrefetch bool    `toml:"cold_start_prefetch"`
	Colors            string  `toml:"colors"`
	LogLevel          string  `toml:"log_level"`
	UserAgent         string  `toml:"user_agent"`
}

// configFileOverride is set by the --config flag
var configFileOverride string

// Default returns the configuration written on first run
func Default() *Config {
	return &Config{
		Language:          "en",
		Lookahead:         2,
		RequestTimeout:    "30s",
		RequestsPerSecond: 5,
		ArtWidth:          40,
		ArtHeight:         24,
		ArtCacheSize:      128,
		ColdStartPrefetch: true,
		Colors:            "auto",
		LogLevel:          "info",
		UserAgent:         appName + "/1.0",
	}
}

// Timeout parses RequestTimeout. Zero means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	return d, nil
}

// applyDefaults resets fields a file set to an unusable empty value. Keys
// missing from the file already hold their Default value. requests_per_second
// is left alone: zero turns rate limiting off.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Language == "" {
		c.Language = def.Language
	}
	if c.ArtWidth == 0 {
		c.ArtWidth = def.ArtWidth
	}
	if c.ArtHeight == 0 {
		c.ArtHeight = def.ArtHeight
	}
	if c.ArtCacheSize == 0 {
		c.ArtCacheSize = def.ArtCacheSize
	}
	if c.Colors == "" {
		c.Colors = def.Colors
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGStateHome returns XDG_STATE_HOME or default path
func GetXDGStateHome() string {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return xdgState
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "state")
}

// SetConfigFilePath overrides the config file location
func SetConfigFilePath(path string) {
	configFileOverride = path
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	if configFileOverride != "" {
		return configFileOverride
	}
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// GetLocalesFilePath returns the path to the optional locale overrides
func GetLocalesFilePath() string {
	return filepath.Join(filepath.Dir(GetConfigFilePath()), "locales.toml")
}

// GetLikesFilePath returns the path liked cards are persisted to
func GetLikesFilePath() string {
	return filepath.Join(GetXDGDataHome(), appName, "liked_cards.json")
}

// GetLogFilePath returns the path of the interactive session log
func GetLogFilePath() string {
	return filepath.Join(GetXDGStateHome(), appName, appName+".log")
}

// LoadConfig loads the config file
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig()
	}

	return DecodeFile(configPath)
}

// DecodeFile reads a config file without creating it
func DecodeFile(path string) (*Config, error) {
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	config.applyDefaults()
	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig() (*Config, error) {
	config := Default()
	if err := SaveConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the config to the config file
func SaveConfig(config *Config) error {
	configPath := GetConfigFilePath()

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

// SetLanguage sets the feed language in the config
func SetLanguage(id string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	config.Language = id
	return SaveConfig(config)
}
