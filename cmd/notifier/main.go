package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/shop-checkout/internal/app"
	"github.com/linemk/shop-checkout/internal/config"
	"github.com/linemk/shop-checkout/internal/lib/logger"
	"github.com/linemk/shop-checkout/internal/lib/metrics"
	"github.com/linemk/shop-checkout/internal/notification"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// notifier - воркер уведомлений о заказах: читает задачи из очереди и отправляет письма
func main() {
	cfg := config.MustLoad()

	log := logger.SetupLogger(cfg.Env, "notifier")
	log.Info("starting notifier",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.Notifications.Driver),
		slog.Int("workers", cfg.Notifications.Workers),
	)

	application, err := app.NewApp(log, cfg, cfg.Notifications.Driver == config.QueueDriverRedis)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	consumer, closeConsumer, err := newConsumer(application)
	if err != nil {
		log.Error("failed to initialize notification consumer", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize notification consumer"))
	}
	defer func() {
		if err := closeConsumer(); err != nil {
			log.Error("failed to close notification consumer", slog.Any("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	sender := notification.NewBreakerSender(log, newSender(log, cfg.SMTP), notification.BreakerSettings{})
	processor := notification.NewProcessor(log, storage.NewOrderRepository(application.DB), sender, m,
		notification.ProcessorOptions{
			MaxAttempts: cfg.Notifications.MaxAttempts,
			Backoff:     cfg.Notifications.Backoff,
		},
	)
	pool := notification.NewPool(log, consumer, processor, cfg.Notifications.Workers, cfg.Notifications.JobTimeout)

	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler(registry))
	metricsSrv := &http.Server{
		Addr:              cfg.Notifications.MetricsAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// блокирует до сигнала, начатые задачи дорабатываются
	pool.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", slog.Any("error", err))
	}
	log.Info("notifier gracefully stopped")
}

// newSender - без SMTP-хоста письма только пишутся в лог
func newSender(log *slog.Logger, cfg config.SMTPConfig) notification.Sender {
	if cfg.Host == "" {
		log.Warn("smtp host is not configured, using log sender")
		return notification.NewLogSender(log)
	}
	return notification.NewSMTPSender(notification.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

func newConsumer(application *app.App) (notification.Consumer, func() error, error) {
	cfg := application.Config.Notifications
	switch cfg.Driver {
	case config.QueueDriverRedis:
		return notification.NewRedisQueue(application.Redis, cfg.RedisKey, 5*time.Second), func() error { return nil }, nil
	case config.QueueDriverKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, errors.New("notifications.kafka.brokers is empty")
		}
		c := notification.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		return c, c.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown notifications driver %q", cfg.Driver)
	}
}
