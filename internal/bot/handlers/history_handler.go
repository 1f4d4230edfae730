package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHistoryHandler returns a handler for the /history command, which shows
// the user's recent publications.
func NewHistoryHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps}.Handle
}

type historyHandler struct {
	deps HandlerDeps
}

func (h historyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.deps.Engine.History(ctx, update.Message.From.ID)
}
