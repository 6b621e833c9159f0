package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	LLM       LLMConfig       `yaml:"llm"`
	Dialog    DialogConfig    `yaml:"dialog"`
	Reminders ReminderConfig  `yaml:"reminders"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Storage   StorageConfig   `yaml:"storage"`
}

// TelegramConfig transport configuration
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// ProviderConfig configuration of a single LLM provider
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LLMConfig LLM provider configuration
type LLMConfig struct {
	DefaultProvider string         `yaml:"default_provider"`
	OpenAI          ProviderConfig `yaml:"openai"`
	DeepSeek        ProviderConfig `yaml:"deepseek"`
}

// DialogConfig dialog context configuration
type DialogConfig struct {
	MaxMessages int `yaml:"max_messages"`
	WindowHours int `yaml:"window_hours"`
}

// ReminderConfig reminder scheduler configuration
type ReminderConfig struct {
	SweepSeconds int `yaml:"sweep_seconds"`
}

// CalendarConfig calendar collaborator configuration
type CalendarConfig struct {
	URL      string `yaml:"url"`
	Timezone string `yaml:"timezone"`
}

// StorageConfig durable storage configuration
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Telegram: TelegramConfig{
			Token: "",
		},
		LLM: LLMConfig{
			DefaultProvider: "deepseek",
			OpenAI: ProviderConfig{
				APIKey:  "",
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
			},
			DeepSeek: ProviderConfig{
				APIKey:  "",
				BaseURL: "https://api.deepseek.com",
				Model:   "deepseek-chat",
			},
		},
		Dialog: DialogConfig{
			MaxMessages: 50,
			WindowHours: 24,
		},
		Reminders: ReminderConfig{
			SweepSeconds: 60,
		},
		Calendar: CalendarConfig{
			URL:      "",
			Timezone: "Europe/Moscow",
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(homeDir, ".telemate", "telemate.db"),
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// Config file doesn't exist yet: create it from defaults plus secrets
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.mergeSecrets()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use default values as base
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.mergeSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeSecrets fills credentials from the .secrets file
// when they are not present in the config itself
func (c *Config) mergeSecrets() {
	secrets, _ := LoadSecrets()
	if secrets == nil {
		return
	}
	if c.Telegram.Token == "" {
		c.Telegram.Token = secrets.GetTelegramToken()
	}
	if c.LLM.OpenAI.APIKey == "" {
		c.LLM.OpenAI.APIKey = secrets.GetOpenAIAPIKey()
	}
	if c.LLM.DeepSeek.APIKey == "" {
		c.LLM.DeepSeek.APIKey = secrets.GetDeepSeekAPIKey()
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# Telemate Configuration File\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LLM.DefaultProvider != "openai" && c.LLM.DefaultProvider != "deepseek" {
		return fmt.Errorf("config error: llm.default_provider must be openai or deepseek")
	}
	if c.LLM.OpenAI.BaseURL == "" || c.LLM.OpenAI.Model == "" {
		return fmt.Errorf("config error: llm.openai base_url and model cannot be empty")
	}
	if c.LLM.DeepSeek.BaseURL == "" || c.LLM.DeepSeek.Model == "" {
		return fmt.Errorf("config error: llm.deepseek base_url and model cannot be empty")
	}
	if c.Dialog.MaxMessages <= 0 {
		return fmt.Errorf("config error: dialog.max_messages must be greater than 0")
	}
	if c.Dialog.WindowHours <= 0 {
		return fmt.Errorf("config error: dialog.window_hours must be greater than 0")
	}
	if c.Reminders.SweepSeconds <= 0 {
		return fmt.Errorf("config error: reminders.sweep_seconds must be greater than 0")
	}
	if c.Calendar.Timezone == "" {
		return fmt.Errorf("config error: calendar.timezone cannot be empty")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("config error: storage.db_path cannot be empty")
	}
	return nil
}

// ValidateCredentials checks that the credentials required to serve
// conversations are present. Called once at startup; a failure here is fatal.
func (c *Config) ValidateCredentials(needTelegram bool) error {
	if needTelegram && c.Telegram.Token == "" {
		return fmt.Errorf("config error: telegram.token is required (set TELEGRAM_BOT_TOKEN in .secrets)")
	}
	if c.LLM.OpenAI.APIKey == "" && c.LLM.DeepSeek.APIKey == "" {
		return fmt.Errorf("config error: at least one LLM provider API key is required")
	}
	return nil
}

// IsProviderConfigured checks if an LLM provider has an API key
func (c *Config) IsProviderConfigured(name string) bool {
	switch name {
	case "openai":
		return c.LLM.OpenAI.APIKey != ""
	case "deepseek":
		return c.LLM.DeepSeek.APIKey != ""
	default:
		return false
	}
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`Telemate Configuration:
  Telegram:
    Token: %s
  LLM:
    Default Provider: %s
    OpenAI: %s (model %s)
    DeepSeek: %s (model %s)
  Dialog:
    Max Messages: %d
    Window Hours: %d
  Reminders:
    Sweep Seconds: %d
  Calendar:
    URL: %s
    Timezone: %s
  Storage:
    DB Path: %s`,
		redactSecret(c.Telegram.Token),
		c.LLM.DefaultProvider,
		redactSecret(c.LLM.OpenAI.APIKey), c.LLM.OpenAI.Model,
		redactSecret(c.LLM.DeepSeek.APIKey), c.LLM.DeepSeek.Model,
		c.Dialog.MaxMessages,
		c.Dialog.WindowHours,
		c.Reminders.SweepSeconds,
		c.Calendar.URL,
		c.Calendar.Timezone,
		c.Storage.DBPath,
	)
}

func redactSecret(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
