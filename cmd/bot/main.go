package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	telegramAdapter "spotify-release-telegram-bot/internal/adapter/telegram"
	"spotify-release-telegram-bot/internal/config"
	"spotify-release-telegram-bot/internal/infra/spotify"
	sqliteRepo "spotify-release-telegram-bot/internal/infra/sqlite"
	"spotify-release-telegram-bot/internal/usecase"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	go func() {
		_ = http.ListenAndServe(cfg.HealthAddr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Ошибка создания бота: %v", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	registry, err := sqliteRepo.NewRegistry(cfg.RegistryDSN)
	if err != nil {
		log.Fatalf("registry sqlite init error: %v", err)
	}
	defer registry.Close()

	statRepo, err := sqliteRepo.NewDispatchStatRepo(cfg.RegistryDSN)
	if err != nil {
		log.Fatalf("dispatch stats sqlite init error: %v", err)
	}

	catalog := spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	if err := catalog.Init(ctx); err != nil {
		log.Fatalf("spotify init error: %v", err)
	}

	sender := telegramAdapter.NewSender(bot)
	coordinator := usecase.NewCoordinator(registry, catalog, sender, logger)
	dispatcher := usecase.NewDispatcher(sender, statRepo, coordinator.Events(), logger)
	poller := usecase.NewPoller(registry, catalog, dispatcher, cfg.PollDuration(), logger)
	reconciler := usecase.NewReconciler(registry, cfg.ReconcileDuration(), logger)
	statsUC := usecase.NewStatsUsecase(registry, statRepo)

	go coordinator.Run(ctx)
	go poller.Run(ctx)
	go reconciler.Run(ctx)

	handler := telegramAdapter.NewHandler(bot, coordinator.Events(), statsUC, cfg.AdminSet(), logger)
	handler.Run(ctx)
	logger.Info("shutdown complete")
}
