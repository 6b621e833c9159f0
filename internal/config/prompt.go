package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptConfig prompt configuration structure
type PromptConfig struct {
	Language string                     `yaml:"language"`
	Prompts  map[string]LanguagePrompts `yaml:"prompts"`
}

// LanguagePrompts prompts for a specific language
type LanguagePrompts struct {
	Persona       string `yaml:"persona"`
	Apology       string `yaml:"apology"`
	NotUnderstood string `yaml:"not_understood"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		Language: "ru",
		Prompts: map[string]LanguagePrompts{
			"ru": {
				Persona: `Ты личный ассистент и помощник.
Ты умеешь запоминать информацию, создавать напоминания и вести диалог.
Ты работаешь в рамках телеграм-бота.
Твоя сессия никогда не заканчивается, поэтому диалог для тебя никогда не прерывается.
Общайся без вводных слов по типу "Конечно, вот несколько вариантов".
Отвечай четко на поставленные вопросы и делай в точности то, о чем тебя просят.`,
				Apology:       "Извините, произошла ошибка при обработке сообщения.",
				NotUnderstood: "Извините, не удалось понять запрос.",
			},
			"en": {
				Persona: `You are a personal assistant.
You can remember information, create reminders and hold a conversation.
You work inside a Telegram bot and your session never ends, so the dialog is never interrupted.
Answer questions directly, without filler introductions.`,
				Apology:       "Sorry, something went wrong while processing your message.",
				NotUnderstood: "Sorry, I could not understand the request.",
			},
		},
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	// First check if there's a config/prompt.yaml in current working directory
	cwd, err := os.Getwd()
	if err == nil {
		localPath := filepath.Join(cwd, "config", "prompt.yaml")
		if _, err := os.Stat(localPath); err == nil {
			return localPath, nil
		}
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// GetPrompts returns prompts for the configured language
func (p *PromptConfig) GetPrompts() LanguagePrompts {
	if prompts, ok := p.Prompts[p.Language]; ok {
		return prompts
	}
	// Fall back to Russian if configured language not found
	if prompts, ok := p.Prompts["ru"]; ok {
		return prompts
	}
	return LanguagePrompts{}
}

// GetPersona returns the persona system prompt for the configured language
func (p *PromptConfig) GetPersona() string {
	return p.GetPrompts().Persona
}

// GetApology returns the generic failure reply for the configured language
func (p *PromptConfig) GetApology() string {
	return p.GetPrompts().Apology
}

// GetNotUnderstood returns the malformed-request reply for the configured language
func (p *PromptConfig) GetNotUnderstood() string {
	return p.GetPrompts().NotUnderstood
}
