// Package bot implements the application orchestrator: it supervises the
// Telegram update listener and the publication scheduler and handles
// graceful shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/avolkov/genpost/internal/scheduler"
)

// Bot supervises the application components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	tgBot     *tgbot.Bot
	scheduler *scheduler.Scheduler
}

// NewBot creates the orchestrator with all required dependencies.
func NewBot(logger *slog.Logger, tgBot *tgbot.Bot, sched *scheduler.Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		tgBot:     tgBot,
		scheduler: sched,
	}
}

// Run starts all components and blocks until the context is cancelled or a
// component fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		b.scheduler.Run()

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Shutdown(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
