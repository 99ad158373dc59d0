package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".chat-terminal"
	DefaultConfigFile = "config.yaml"
)

// Enter-key behavior for the prompt input.
const (
	EnterSends   = "send"    // Enter sends, Alt+Enter inserts a newline
	EnterNewline = "newline" // Enter inserts a newline, Ctrl+S sends
)

// Config represents the application configuration
type Config struct {
	// EnterBehavior: what the Enter key does in the prompt input ("send" or
	// "newline")
	EnterBehavior string `yaml:"enter_behavior"`

	// Theme: bubbletint tint id used for the UI color scheme
	Theme string `yaml:"theme"`

	// DataDir: store location; empty means <home>/.chat-terminal/db
	DataDir string `yaml:"data_dir"`

	Completions CompletionsConfig `yaml:"completions"`
}

// CompletionsConfig points at the OpenAI-compatible endpoint producing
// assistant replies
type CompletionsConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// UserName: recorded as the author of human messages
	UserName string `yaml:"user_name"`
}

func DefaultConfig() *Config {
	return &Config{
		EnterBehavior: EnterSends,
		Theme:         "chalk",
		Completions: CompletionsConfig{
			BaseURL:     "http://127.0.0.1:18181",
			Model:       "default",
			Temperature: 0.7,
			MaxTokens:   2048,
			UserName:    "you",
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DatabasePath resolves the store location, honoring the DataDir override
func (c *Config) DatabasePath() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, "db"), nil
}

// Load loads the configuration from file, creating default if not exists
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			// If save fails, just return default config without error
			// This ensures the app works even if we can't write config
			return cfg, nil
		}
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	// Ensure config directory exists
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Marshal to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.EnterBehavior != EnterSends && c.EnterBehavior != EnterNewline {
		return fmt.Errorf("enter_behavior must be %q or %q, got %q", EnterSends, EnterNewline, c.EnterBehavior)
	}

	if c.Completions.Temperature < 0.0 || c.Completions.Temperature > 2.0 {
		return fmt.Errorf("completions.temperature must be between 0.0 and 2.0, got %f", c.Completions.Temperature)
	}

	if c.Completions.MaxTokens <= 0 {
		return fmt.Errorf("completions.max_tokens must be positive, got %d", c.Completions.MaxTokens)
	}

	if c.Completions.Model == "" {
		return fmt.Errorf("completions.model must not be empty")
	}

	return nil
}
