package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/signalroom/config"
	"github.com/alejandrodnm/signalroom/internal/adapters/notify"
	"github.com/alejandrodnm/signalroom/internal/adapters/telegram"
	"github.com/alejandrodnm/signalroom/internal/aggregator"
	"github.com/alejandrodnm/signalroom/internal/analyzer"
	"github.com/alejandrodnm/signalroom/internal/classifier"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/alejandrodnm/signalroom/internal/observability"
)

// runListen escucha la sala en Telegram hasta Ctrl+C. Los mensajes se guardan
// en la base de datos y los reportes se recalculan desde ahí.
func runListen(ctx context.Context, cfg *config.Config, loc *time.Location, cls *classifier.Classifier, agg *aggregator.Aggregator) error {
	if err := cfg.ValidateListen(); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer store.Close()

	bot, err := telegram.NewBot(cfg.Telegram.BotToken)
	if err != nil {
		return err
	}
	listener := telegram.NewListener(bot, telegram.Options{
		ChatIDs:          cfg.Telegram.ChatIDs,
		ReportChatID:     cfg.Telegram.ReportChatID,
		RepliesPerSecond: cfg.Telegram.RepliesPerSecond,
		Location:         loc,
	})

	aCfg := analyzer.DefaultConfig()
	aCfg.RecentLimit = cfg.Report.RecentLimit
	aCfg.Location = loc

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("")
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	a := analyzer.New(aCfg, store, cls, agg, notify.NewConsole(cfg.Report.Table), listener).WithMetrics(metrics)
	listener.OnStats(a.Build)

	if cfg.Schedule.ReportCron != "" {
		c, err := a.Schedule(ctx, cfg.Schedule.ReportCron)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	slog.Info("listening to telegram",
		"chats", cfg.Telegram.ChatIDs,
		"report_chat", cfg.Telegram.ReportChatID,
		"report_cron", cfg.Schedule.ReportCron,
		"metrics", cfg.Metrics.Enabled,
	)

	msgs := make(chan domain.RawMessage, 64)
	listenErr := make(chan error, 1)
	go func() {
		defer close(msgs)
		listenErr <- listener.Listen(ctx, msgs)
	}()

	if err := analyzer.NewLive(a, store, "telegram").Consume(ctx, msgs); err != nil {
		return err
	}

	// Consume termina al cancelarse ctx o al cerrarse msgs.
	select {
	case err := <-listenErr:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("telegram listener: %w", err)
		}
	case <-time.After(5 * time.Second):
		slog.Warn("telegram listener did not stop in time")
	}
	return nil
}
