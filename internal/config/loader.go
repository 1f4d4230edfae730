package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (missing file is not an error)
// 3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	// Registered so BOT_TELEGRAM_TOKEN is visible to Unmarshal; viper only
	// binds automatic env vars for keys it already knows about.
	v.SetDefault("telegram.token", "")

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("directory.path", DefaultDirectoryPath)

	v.SetDefault("gen.model", DefaultGenModel)
	v.SetDefault("gen.temperature", DefaultGenTemperature)
	v.SetDefault("gen.timeout", DefaultGenTimeout)

	v.SetDefault("scheduler.first_fire", DefaultSchedulerFirstFire)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.enter_credential", DefaultMessages.EnterCredential)
	v.SetDefault("messages.choose_channels", DefaultMessages.ChooseChannels)
	v.SetDefault("messages.no_channels", DefaultMessages.NoChannels)
	v.SetDefault("messages.empty_selection", DefaultMessages.EmptySelection)
	v.SetDefault("messages.enter_prompt", DefaultMessages.EnterPrompt)
	v.SetDefault("messages.prompt_added", DefaultMessages.PromptAdded)
	v.SetDefault("messages.no_prompts", DefaultMessages.NoPrompts)
	v.SetDefault("messages.enter_interval", DefaultMessages.EnterInterval)
	v.SetDefault("messages.invalid_interval", DefaultMessages.InvalidInterval)
	v.SetDefault("messages.started", DefaultMessages.Started)
	v.SetDefault("messages.stopped", DefaultMessages.Stopped)
	v.SetDefault("messages.not_active", DefaultMessages.NotActive)
	v.SetDefault("messages.need_setup", DefaultMessages.NeedSetup)
	v.SetDefault("messages.gen_error", DefaultMessages.GenError)
	v.SetDefault("messages.history_header", DefaultMessages.HistoryHeader)
	v.SetDefault("messages.history_empty", DefaultMessages.HistoryEmpty)
}
