package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/genpost/internal/dialog"
)

// callbackHandler translates inline keyboard presses into dialog events.
// Rejections reported by the engine surface as short callback alerts, so
// the dialog message itself stays untouched.
type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) HandleSetup(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	h.answer(ctx, b, cb.ID, "")
	h.deps.Engine.BeginSetup(ctx, cb.From.ID)
}

func (h callbackHandler) HandleToggle(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	channelID := strings.TrimPrefix(cb.Data, CallbackTogglePrefix)
	h.answer(ctx, b, cb.ID, "")
	h.deps.Engine.ToggleChannel(ctx, cb.From.ID, channelID)
}

func (h callbackHandler) HandleConfirm(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	if err := h.deps.Engine.ConfirmChannels(ctx, cb.From.ID); err != nil {
		if errors.Is(err, dialog.ErrNoChannels) {
			h.alert(ctx, b, cb.ID, h.deps.Config.Messages.EmptySelection)
			return
		}
		h.deps.Logger.ErrorContext(ctx, "Confirm failed", "user_id", cb.From.ID, "error", err)
		return
	}
	h.answer(ctx, b, cb.ID, "")
}

func (h callbackHandler) HandleBegin(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	if err := h.deps.Engine.BeginGeneration(ctx, cb.From.ID); err != nil {
		if errors.Is(err, dialog.ErrNoPrompts) {
			h.alert(ctx, b, cb.ID, h.deps.Config.Messages.NoPrompts)
			return
		}
		h.deps.Logger.ErrorContext(ctx, "Begin generation failed", "user_id", cb.From.ID, "error", err)
		return
	}
	h.answer(ctx, b, cb.ID, "")
}

func (h callbackHandler) HandleStop(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}
	if err := h.deps.Engine.Stop(ctx, cb.From.ID); err != nil {
		if errors.Is(err, dialog.ErrNotActive) {
			h.alert(ctx, b, cb.ID, h.deps.Config.Messages.NotActive)
			return
		}
		h.deps.Logger.ErrorContext(ctx, "Stop failed", "user_id", cb.From.ID, "error", err)
		return
	}
	h.answer(ctx, b, cb.ID, "")
}

// answer acknowledges a callback query so the client stops the spinner.
func (h callbackHandler) answer(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to answer callback query", "error", err)
	}
}

// alert acknowledges a callback query with a popup alert.
func (h callbackHandler) alert(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to answer callback query", "error", err)
	}
}
