package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tg-content-bot/internal/adapters/bot"
	"tg-content-bot/internal/adapters/repo"
	"tg-content-bot/internal/adapters/telegram"
	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/cache"
	"tg-content-bot/internal/infra/config"
	"tg-content-bot/internal/infra/db"
	httpinfra "tg-content-bot/internal/infra/http"
	"tg-content-bot/internal/infra/log"
	"tg-content-bot/internal/infra/metrics"
	"tg-content-bot/internal/usecase/access"
	"tg-content-bot/internal/usecase/broadcast"
	"tg-content-bot/internal/usecase/channels"
	"tg-content-bot/internal/usecase/content"
	"tg-content-bot/internal/usecase/membership"
)

const webhookPath = "/bot/webhook"

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("не удалось подключиться к хранилищу")
	}
	defer closeStore()

	registry := content.NewRegistry(store, store, log.Component(logger, "content"))
	if err := registry.LoadAll(ctx); err != nil {
		logger.Fatal().Err(err).Msg("не удалось загрузить контент")
	}
	channelRegistry := channels.NewRegistry(store)
	if err := channelRegistry.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("не удалось загрузить каналы")
	}
	stats := registry.Stats()
	logger.Info().Int("items", stats.Items).Int("users", stats.Users).Int("channels", len(channelRegistry.List())).Msg("данные загружены")

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.Token, tgbotapi.APIEndpoint, &http.Client{Timeout: 90 * time.Second})
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}

	var oracle domain.MembershipOracle = telegram.NewOracle(botAPI)
	if cfg.Membership.CacheTTL > 0 {
		oracle = membership.NewCachedOracle(oracle, cfg.Membership.CacheSize, cfg.Membership.CacheTTL)
	}
	gate := membership.NewGate(oracle, cfg.Membership.Timeout, log.Component(logger, "membership"))

	sender := telegram.NewSender(botAPI)
	dispatcher := broadcast.NewDispatcher(sender, cfg.Broadcast.Workers, cfg.Broadcast.SendTimeout, log.Component(logger, "broadcast"))

	idempotency, closeCache, err := openCache(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к Redis")
	}
	defer closeCache()

	handler := bot.NewHandler(bot.Deps{
		Bot:        botAPI,
		Sender:     sender,
		Content:    registry,
		Channels:   channelRegistry,
		Gate:       gate,
		Dispatcher: dispatcher,
		Guard:      access.NewGuard(cfg.Admin.ID),
		Cache:      idempotency,
	}, bot.Options{
		ContentChannelID:   cfg.Content.ChannelID,
		ContentChannelLink: cfg.Content.ChannelLink,
		AdminContact:       cfg.Admin.Contact,
		TopLimit:           cfg.Content.TopLimit,
		BroadcastDedupTTL:  cfg.Broadcast.DedupTTL,
	}, log.Component(logger, "bot"))

	flushCtx, stopFlusher := context.WithCancel(context.Background())
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		registry.RunFlusher(flushCtx, cfg.Content.FlushInterval)
	}()

	server := httpinfra.NewServer(log.Component(logger, "http"), prometheus.DefaultGatherer)
	if cfg.Telegram.WebhookURL != "" {
		server.Router.With(httpinfra.WebhookSecretMiddleware(cfg.Telegram.WebhookSecret)).
			Post(webhookPath, httpinfra.WebhookHandler(handler.Serve))
	}
	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
			stop()
		}
	}()

	if cfg.Telegram.WebhookURL != "" {
		if err := setWebhook(botAPI, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			logger.Fatal().Err(err).Msg("не удалось установить вебхук")
		}
		logger.Info().Str("url", cfg.Telegram.WebhookURL).Msg("бот принимает апдейты через вебхук")
	}
	pollDone := make(chan struct{})
	if cfg.Telegram.WebhookURL == "" {
		if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn().Err(err).Msg("не удалось снять вебхук")
		}
		upd := tgbotapi.NewUpdate(0)
		upd.Timeout = 30
		updates := botAPI.GetUpdatesChan(upd)
		go func() {
			defer close(pollDone)
			for update := range updates {
				handler.Serve(ctx, update)
			}
		}()
		logger.Info().Str("bot", botAPI.Self.UserName).Msg("бот запущен в режиме long polling")
	}

	<-ctx.Done()
	logger.Info().Msg("остановка бота")

	if cfg.Telegram.WebhookURL == "" {
		botAPI.StopReceivingUpdates()
		<-pollDone
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ошибка остановки HTTP сервера")
	}
	handler.Wait()
	stopFlusher()
	<-flusherDone
	logger.Info().Msg("бот остановлен")
}

func openStore(cfg config.AppConfig, logger zerolog.Logger) (domain.ContentStore, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.PGDSN == "" {
			return nil, nil, errors.New("PG_DSN не задан")
		}
		if err := db.Migrate(cfg.Store.PGDSN); err != nil {
			return nil, nil, err
		}
		pool, err := db.Connect(cfg.Store.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewPostgres(pool), pool.Close, nil
	case "sqlite":
		store, err := repo.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("ошибка закрытия sqlite")
			}
		}
		return store, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("%w: неизвестный STORE_DRIVER %q", domain.ErrValidation, cfg.Store.Driver)
	}
}

func openCache(ctx context.Context, addr string) (domain.Cache, func(), error) {
	if addr == "" {
		return cache.NewMemory(), func() {}, nil
	}
	client, err := cache.Connect(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedis(client), func() { _ = client.Close() }, nil
}

func setWebhook(botAPI *tgbotapi.BotAPI, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	params.AddNonEmpty("allowed_updates", `["message","channel_post","edited_channel_post","callback_query"]`)
	_, err := botAPI.MakeRequest("setWebhook", params)
	return err
}
