package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath        = "genpost.db"
	DefaultDirectoryPath = "channels.json"

	DefaultGenModel       = "gemini-2.0-flash"
	DefaultGenTemperature = 1.0
	DefaultGenTimeout     = 2 * time.Minute

	DefaultSchedulerFirstFire = FirstFireImmediate
)

// DefaultMessages holds the default user-visible texts.
var DefaultMessages = MessagesConfig{
	Welcome:         "Hi! Press \"Begin\" to set up periodic publications, or just send me a message to chat.",
	Help:            "Setup flow: press \"Begin\", enter your generation API key, pick the channels to publish to, add one or more prompts, then set an interval in minutes. I will rotate through your prompts and publish a generated post to every selected channel on each tick. Use the \"Stop\" button to stop. Any other message is answered directly by the generation service.",
	EnterCredential: "Enter your generation service API key:",
	ChooseChannels:  "Choose channels to publish to:",
	NoChannels:      "I don't know any channels yet. Add me to a channel as an administrator first.",
	EmptySelection:  "Select at least one channel!",
	EnterPrompt:     "Enter a prompt to publish to the channels.",
	PromptAdded:     "Added prompt: %q\n\nYou can enter another one or press the button to start generation.",
	NoPrompts:       "You have not added any prompts!",
	EnterInterval:   "Enter the publication interval (in minutes):",
	InvalidInterval: "Enter a positive whole number.",
	Started:         "Generation started, publishing every %d minutes.",
	Stopped:         "Publication stopped.",
	NotActive:       "Publication is already stopped.",
	NeedSetup:       "Press \"Begin\" and enter your API key first.",
	GenError:        "The generation service could not be reached. Please try again.",
	HistoryHeader:   "Your recent publications:",
	HistoryEmpty:    "No publications yet.",
}
