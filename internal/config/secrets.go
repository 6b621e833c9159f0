package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Secrets sensitive configuration loaded from .secrets file
type Secrets struct {
	values map[string]string
}

// NewSecrets creates a new Secrets instance
func NewSecrets() *Secrets {
	return &Secrets{
		values: make(map[string]string),
	}
}

// SecretsPath returns the secrets file path
func SecretsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".secrets"), nil
}

// LoadSecrets loads secrets from the .secrets file.
// Environment variables with the same keys take precedence over the file,
// so deployments can skip the file entirely.
func LoadSecrets() (*Secrets, error) {
	secrets := NewSecrets()

	secretsPath, err := SecretsPath()
	if err == nil {
		if file, err := os.Open(secretsPath); err == nil {
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())

				// Skip empty lines and comments
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}

				parts := strings.SplitN(line, "=", 2)
				if len(parts) == 2 {
					key := strings.TrimSpace(parts[0])
					value := strings.TrimSpace(parts[1])
					secrets.values[key] = value
				}
			}
			file.Close()
		}
	}

	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "OPENAI_API_KEY", "DEEPSEEK_API_KEY"} {
		if value := os.Getenv(key); value != "" {
			secrets.values[key] = value
		}
	}

	return secrets, nil
}

// Get returns the value for a key
func (s *Secrets) Get(key string) string {
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

// Has checks if a key exists
func (s *Secrets) Has(key string) bool {
	if s == nil || s.values == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// GetTelegramToken returns the Telegram bot token from secrets
func (s *Secrets) GetTelegramToken() string {
	return s.Get("TELEGRAM_BOT_TOKEN")
}

// GetOpenAIAPIKey returns the OpenAI API key from secrets
func (s *Secrets) GetOpenAIAPIKey() string {
	return s.Get("OPENAI_API_KEY")
}

// GetDeepSeekAPIKey returns the DeepSeek API key from secrets
func (s *Secrets) GetDeepSeekAPIKey() string {
	return s.Get("DEEPSEEK_API_KEY")
}
