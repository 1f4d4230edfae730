package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Deliverer sends generated text to Telegram channels. It implements
// publisher.Deliverer.
type Deliverer struct {
	logger *slog.Logger
	bot    *bot.Bot
}

// NewDeliverer creates the Telegram channel deliverer.
func NewDeliverer(logger *slog.Logger, b *bot.Bot) *Deliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deliverer{
		logger: logger.With("component", "deliverer"),
		bot:    b,
	}
}

// DeliverText sends text to a single channel. channelID is the directory's
// string form of the Telegram chat id.
func (d *Deliverer) DeliverText(ctx context.Context, channelID, text string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid channel id %q: %w", channelID, err)
	}

	_, err = d.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to deliver to channel %s: %w", channelID, err)
	}
	return nil
}
