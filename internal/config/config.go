// Package config provides configuration loading and validation for the
// genpost bot. Values come from defaults, an optional config.yaml, and
// BOT_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// First-fire policies for the publication scheduler. Immediate publishes
// once synchronously when the interval is accepted; delayed waits one full
// period before the first publication.
const (
	FirstFireImmediate = "immediate"
	FirstFireDelayed   = "delayed"
)

// Config defines the application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Gen       GenConfig       `mapstructure:"gen"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram API settings.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// DatabaseConfig holds settings for the publication history database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DirectoryConfig holds settings for the channel directory file.
type DirectoryConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GenConfig holds settings for the text-generation service. The API key is
// not configured here: each user supplies their own key during setup.
type GenConfig struct {
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"required,min=1s,max=10m"`
}

// SchedulerConfig holds publication scheduler settings.
type SchedulerConfig struct {
	FirstFire string `mapstructure:"first_fire" validate:"required,oneof=immediate delayed"`
}

// MessagesConfig holds all user-visible message texts.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"          validate:"required"`
	Help            string `mapstructure:"help"             validate:"required"`
	EnterCredential string `mapstructure:"enter_credential" validate:"required"`
	ChooseChannels  string `mapstructure:"choose_channels"  validate:"required"`
	NoChannels      string `mapstructure:"no_channels"      validate:"required"`
	EmptySelection  string `mapstructure:"empty_selection"  validate:"required"`
	EnterPrompt     string `mapstructure:"enter_prompt"     validate:"required"`
	PromptAdded     string `mapstructure:"prompt_added"     validate:"required"`
	NoPrompts       string `mapstructure:"no_prompts"       validate:"required"`
	EnterInterval   string `mapstructure:"enter_interval"   validate:"required"`
	InvalidInterval string `mapstructure:"invalid_interval" validate:"required"`
	Started         string `mapstructure:"started"          validate:"required"`
	Stopped         string `mapstructure:"stopped"          validate:"required"`
	NotActive       string `mapstructure:"not_active"       validate:"required"`
	NeedSetup       string `mapstructure:"need_setup"       validate:"required"`
	GenError        string `mapstructure:"gen_error"        validate:"required"`
	HistoryHeader   string `mapstructure:"history_header"   validate:"required"`
	HistoryEmpty    string `mapstructure:"history_empty"    validate:"required"`
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
