// Package main contains the entrypoint for the cleanup bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/faxinabot/internal/bot"
	"github.com/edgard/faxinabot/internal/bot/handlers"
	"github.com/edgard/faxinabot/internal/bot/tasks"
	"github.com/edgard/faxinabot/internal/config"
	"github.com/edgard/faxinabot/internal/database"
	"github.com/edgard/faxinabot/internal/logger"
	"github.com/edgard/faxinabot/internal/metrics"
	"github.com/edgard/faxinabot/internal/moderation"
	"github.com/edgard/faxinabot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components and returns an
// exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "", "Path to configuration file (default ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	loc, err := cfg.Retention.Location()
	if err != nil {
		log.Error("Invalid timezone", "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log, loc)

	m := metrics.New()

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Policy:   moderation.NewPolicy(store),
		Gate:     moderation.NewGate(store),
		Metrics:  m,
		Location: loc,
	}

	// The moderation handler needs the client, which needs the bot.
	var moderate tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			moderate(ctx, b, update)
		}),
		tgbot.WithHTTPClient(cfg.Telegram.PollTimeout, &http.Client{
			Timeout: cfg.Telegram.PollTimeout + cfg.Telegram.RequestTimeout,
		}),
		tgbot.WithErrorsHandler(func(err error) {
			log.Warn("Telegram polling error", "error", err)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	client := telegram.NewBotClient(tg, log, m, cfg.Telegram.RequestTimeout)
	hDeps.Client = client
	moderate = handlers.NewModerationHandler(hDeps)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sweeper := tasks.NewSweeper(store, client, tasks.SweeperConfig{
		Window:       cfg.Retention.Window,
		Announcement: cfg.Messages.Announcement,
		Location:     loc,
	}, log, m)
	sweeps := tasks.NewSweepRunner(sweeper, log)

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
		Sweeps: sweeps,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, loc, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, store, tg, sched, sweeps, m)

	log.Info("Starting bot",
		"retention_window", cfg.Retention.Window,
		"sweep_time", cfg.Retention.SweepTime,
		"timezone", loc.String(),
	)
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}
