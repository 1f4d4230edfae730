package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// Callback data values for the setup dialog's inline keyboards.
const (
	CallbackSetup        = "setup"
	CallbackTogglePrefix = "toggle:"
	CallbackConfirm      = "confirm"
	CallbackBegin        = "begin"
	CallbackStop         = "stop"
)

// RegisteredHandler represents a handler with its match rules. It
// encapsulates all information needed to register a command or callback.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	MatchType   tgbot.MatchType
}

// RegisterAll initializes and returns a map of all command and callback
// handlers, keyed by a human-readable name for logging.
func RegisterAll(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/history"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "history",
		Handler:     NewHistoryHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	cb := callbackHandler{deps}
	handlers["cb:setup"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     CallbackSetup,
		Handler:     cb.HandleSetup,
		MatchType:   tgbot.MatchTypeExact,
	}
	handlers["cb:toggle"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     CallbackTogglePrefix,
		Handler:     cb.HandleToggle,
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["cb:confirm"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     CallbackConfirm,
		Handler:     cb.HandleConfirm,
		MatchType:   tgbot.MatchTypeExact,
	}
	handlers["cb:begin"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     CallbackBegin,
		Handler:     cb.HandleBegin,
		MatchType:   tgbot.MatchTypeExact,
	}
	handlers["cb:stop"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     CallbackStop,
		Handler:     cb.HandleStop,
		MatchType:   tgbot.MatchTypeExact,
	}

	return handlers
}
