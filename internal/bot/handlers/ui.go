package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/avolkov/genpost/internal/dialog"
)

// Labels for the dialog's named actions.
var actionLabels = map[dialog.Action]string{
	dialog.ActionBeginSetup:      "Begin",
	dialog.ActionConfirmChannels: "Next",
	dialog.ActionBeginGeneration: "Start generation",
	dialog.ActionStop:            "Stop",
}

var actionData = map[dialog.Action]string{
	dialog.ActionBeginSetup:      CallbackSetup,
	dialog.ActionConfirmChannels: CallbackConfirm,
	dialog.ActionBeginGeneration: CallbackBegin,
	dialog.ActionStop:            CallbackStop,
}

type pickerRef struct {
	chatID    int64
	messageID int
}

// UI renders the dialog engine's outbound effects over Telegram. Users talk
// to the bot in private chats, so the user id doubles as the chat id.
type UI struct {
	logger *slog.Logger
	bot    *bot.Bot

	mu      sync.Mutex
	pickers map[int64]pickerRef // userID -> last sent channel picker
}

// NewUI creates the Telegram implementation of dialog.UI.
func NewUI(logger *slog.Logger, b *bot.Bot) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	return &UI{
		logger:  logger.With("component", "telegram_ui"),
		bot:     b,
		pickers: make(map[int64]pickerRef),
	}
}

// SendText sends a plain text message to the user.
func (u *UI) SendText(ctx context.Context, userID int64, text string) error {
	_, err := u.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: userID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMenu sends a text message with one inline button per action.
func (u *UI) SendMenu(ctx context.Context, userID int64, text string, actions ...dialog.Action) error {
	rows := make([][]models.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: actionLabels[a], CallbackData: actionData[a]},
		})
	}

	_, err := u.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      userID,
		Text:        text,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		return fmt.Errorf("failed to send menu: %w", err)
	}
	return nil
}

// SendChannelPicker sends the channel selection keyboard and remembers the
// message so later toggles can refresh it in place.
func (u *UI) SendChannelPicker(ctx context.Context, userID int64, text string, entries []dialog.ChannelEntry) error {
	msg, err := u.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      userID,
		Text:        text,
		ReplyMarkup: pickerKeyboard(entries),
	})
	if err != nil {
		return fmt.Errorf("failed to send channel picker: %w", err)
	}

	u.mu.Lock()
	u.pickers[userID] = pickerRef{chatID: msg.Chat.ID, messageID: msg.ID}
	u.mu.Unlock()
	return nil
}

// RefreshChannelPicker re-renders the last sent picker's keyboard so the
// selection marks reflect the current state.
func (u *UI) RefreshChannelPicker(ctx context.Context, userID int64, entries []dialog.ChannelEntry) error {
	u.mu.Lock()
	ref, ok := u.pickers[userID]
	u.mu.Unlock()
	if !ok {
		return fmt.Errorf("no channel picker to refresh for user %d", userID)
	}

	_, err := u.bot.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      ref.chatID,
		MessageID:   ref.messageID,
		ReplyMarkup: pickerKeyboard(entries),
	})
	if err != nil {
		return fmt.Errorf("failed to refresh channel picker: %w", err)
	}
	return nil
}

func pickerKeyboard(entries []dialog.ChannelEntry) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(entries)+1)
	for _, e := range entries {
		mark := "☑️"
		if e.Selected {
			mark = "✅"
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: mark + " " + e.Title, CallbackData: CallbackTogglePrefix + e.ID},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: actionLabels[dialog.ActionConfirmChannels], CallbackData: CallbackConfirm},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
