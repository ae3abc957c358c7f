package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/cart"
	"github.com/fjod/shopclassy/internal/events"
	"github.com/fjod/shopclassy/internal/hydration"
	h "github.com/fjod/shopclassy/internal/http"
	"github.com/fjod/shopclassy/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	catalogSvc, closeCatalog, err := openCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCatalog()

	st, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := cart.NewStore(ctx, cart.StoreDeps{
		Storage:      st,
		Key:          cfg.Cart.StorageKey,
		Logger:       log,
		WriteTimeout: cfg.Cart.WriteTimeout,
	})

	content, err := hydration.NewService(catalogSvc)
	if err != nil {
		return err
	}

	var publisher *events.Publisher
	if cfg.KafkaEnabled() {
		publisher = events.NewPublisher(events.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			Producer: "storefront",
		}, log)
		publisher.Start(ctx)
		unsubscribe := store.Subscribe(publisher.Listener(cfg.Cart.StorageKey))
		defer unsubscribe()
		log.Info("publishing cart events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		if cfg.Catalog.DBPath != "" {
			consumer := events.NewCatalogConsumer(cfg.Kafka.Brokers, cfg.Kafka.CatalogTopic, cfg.Kafka.GroupID,
				events.RefresherFunc(func(ctx context.Context) error {
					_, err := catalogSvc.Refresh(ctx)
					return err
				}), log)
			defer consumer.Close()
			go consumer.Run(ctx)
		}
	}

	go catalogSvc.Run(ctx, cfg.Catalog.RefreshInterval)

	tp := telemetry.NewTracerProvider("storefront")
	shutdownTracing := telemetry.Install(tp)

	srv := &http.Server{
		Addr: ":" + cfg.HTTP.Port,
		Handler: h.NewRouter(h.RouterDeps{
			Catalog:        catalogSvc,
			Cart:           store,
			Hydration:      content,
			Logger:         log,
			RequestTimeout: cfg.HTTP.RequestTimeout,
			MaxBodySize:    cfg.HTTP.MaxRequestBodySize,
			TracerProvider: tp,
			Propagator:     telemetry.Propagator(),
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("addr", srv.Addr), zap.String("cart_backend", cfg.Cart.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		_ = shutdownTracing(context.Background())
		return err
	}

	log.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to shut down tracer provider", zap.Error(err))
	}

	cancel()
	if publisher != nil {
		publisher.WaitClosed()
	}
	log.Info("server exited")
	return nil
}
