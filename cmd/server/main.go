package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/shop-checkout/internal/app"
	"github.com/linemk/shop-checkout/internal/app/handlers"
	"github.com/linemk/shop-checkout/internal/config"
	"github.com/linemk/shop-checkout/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-checkout/internal/lib/idempotency"
	"github.com/linemk/shop-checkout/internal/lib/logger"
	"github.com/linemk/shop-checkout/internal/lib/logger/handlers/urllog"
	"github.com/linemk/shop-checkout/internal/lib/metrics"
	"github.com/linemk/shop-checkout/internal/notification"
	"github.com/linemk/shop-checkout/internal/service"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env, "api")
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения: конфиг, postgres, redis
	application, err := app.NewApp(log, cfg, true)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// продюсер очереди уведомлений
	publisher, closePublisher, err := newPublisher(application)
	if err != nil {
		log.Error("failed to initialize notification publisher", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize notification publisher"))
	}
	defer func() {
		if err := closePublisher(); err != nil {
			log.Error("failed to close notification publisher", slog.Any("error", err))
		}
	}()

	dispatcher := notification.NewDispatcher(log, publisher, cfg.Notifications.Buffer, 5*time.Second)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(dispatcherCtx)
	}()

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	catalogRepo := storage.NewCatalogRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(log, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	catalogService := service.NewCatalogService(log, userRepo, catalogRepo)
	cartService := service.NewCartService(log, application.DB, cartRepo, catalogRepo)
	orderService := service.NewOrderService(log, orderRepo)
	checkoutService := service.NewCheckoutService(log, application.DB, userRepo, cartRepo, orderRepo,
		service.MockPaymentProcessor{}, dispatcher, m,
		service.CheckoutOptions{StrictProductCheck: cfg.Checkout.StrictProductCheck},
	)
	idempotencyStore := idempotency.NewStore(application.Redis, cfg.Idempotency.TTL)

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)

	router.Handle("/metrics", metrics.Handler(registry))

	router.Route("/api", func(r chi.Router) {
		// эндпоинт для аутентификации
		r.Post("/auth", handlers.AuthHandler(log, authService))

		// каталог открыт без токена
		r.Get("/products", handlers.ListProductsHandler(log, catalogService))
		r.Get("/products/{id}", handlers.GetProductHandler(log, catalogService))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewJWTMiddleware())

			r.Get("/cart", handlers.GetCartHandler(log, cartService))
			r.Post("/cart/add", handlers.AddToCartHandler(log, cartService))
			r.Patch("/cart/update", handlers.UpdateCartHandler(log, cartService))
			r.Delete("/cart/remove", handlers.RemoveFromCartHandler(log, cartService))

			r.Post("/orders", handlers.CreateOrderHandler(log, checkoutService, orderService, idempotencyStore))
			r.Get("/orders", handlers.ListOrdersHandler(log, orderService))
			r.Get("/orders/{id}", handlers.GetOrderHandler(log, orderService))

			r.Delete("/admin/products/{id}", handlers.DeleteProductHandler(log, catalogService))
			r.Delete("/admin/categories/{id}", handlers.DeleteCategoryHandler(log, catalogService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}

	// новые заказы больше не приходят, досылаем то, что осталось в буфере
	stopDispatcher()
	<-dispatcherDone
	log.Info("server gracefully stopped")
}

// newPublisher выбирает брокер очереди уведомлений по конфигу
func newPublisher(application *app.App) (notification.Publisher, func() error, error) {
	cfg := application.Config.Notifications
	switch cfg.Driver {
	case config.QueueDriverRedis:
		// клиент redis закрывает App
		return notification.NewRedisQueue(application.Redis, cfg.RedisKey, time.Second), func() error { return nil }, nil
	case config.QueueDriverKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, errors.New("notifications.kafka.brokers is empty")
		}
		p := notification.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return p, p.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown notifications driver %q", cfg.Driver)
	}
}
