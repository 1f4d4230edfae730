// Package main contains the entrypoint for the genpost Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/avolkov/genpost/internal/bot"
	"github.com/avolkov/genpost/internal/bot/handlers"
	"github.com/avolkov/genpost/internal/config"
	"github.com/avolkov/genpost/internal/database"
	"github.com/avolkov/genpost/internal/dialog"
	"github.com/avolkov/genpost/internal/directory"
	"github.com/avolkov/genpost/internal/gen"
	"github.com/avolkov/genpost/internal/logger"
	"github.com/avolkov/genpost/internal/publisher"
	"github.com/avolkov/genpost/internal/scheduler"
	"github.com/avolkov/genpost/internal/store"
	"github.com/avolkov/genpost/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	history := database.NewStore(db, log)

	dir, err := directory.Load(cfg.Directory.Path, log)
	if err != nil {
		log.Error("Failed to load channel directory", "path", cfg.Directory.Path, "error", err)
		return 1
	}

	conversations := store.New()
	genClient := gen.NewClient(cfg.Gen, log)

	// The default handler needs the dialog engine, and the engine needs
	// the bot for its UI, so handler deps are bound late via pointer.
	deps := &handlers.HandlerDeps{Logger: log, Config: cfg}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(deps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	ui := handlers.NewUI(log, tg)
	deliverer := handlers.NewDeliverer(log, tg)

	pub := publisher.New(log, conversations, genClient, deliverer, history)

	sched, err := scheduler.NewScheduler(log, pub)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	engine := dialog.NewEngine(log, cfg, conversations, dir, sched, pub, genClient, ui, history)
	deps.Engine = engine

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAll(*deps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
