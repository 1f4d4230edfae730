package handlers

import (
	"log/slog"

	"github.com/avolkov/genpost/internal/config"
	"github.com/avolkov/genpost/internal/dialog"
)

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Engine *dialog.Engine
}
