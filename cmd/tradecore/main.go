package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/assetra/tradecore/internal/config"
	"github.com/assetra/tradecore/internal/engine"
	"github.com/assetra/tradecore/internal/handler"
	"github.com/assetra/tradecore/internal/service"
	"github.com/assetra/tradecore/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Stores.
	assets := store.NewAssetStore()
	orders := store.NewOrderStore()
	trades := store.NewTradeStore()
	escrows := store.NewEscrowStore()

	// Snapshot persistence (optional).
	var snapshots *store.SnapshotStore
	if cfg.SnapshotPath != "" {
		snapshots, err = store.OpenSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			logger.Fatal("failed to open snapshot store", zap.Error(err))
		}
		defer snapshots.Close()

		snap, err := snapshots.Load()
		if err != nil {
			logger.Fatal("failed to load snapshot", zap.Error(err))
		}
		if snap != nil {
			orders.Restore(snap.Orders)
			trades.Restore(snap.Trades)
			escrows.Restore(snap.Escrows)
			logger.Info("snapshot restored",
				zap.Int("orders", len(snap.Orders)),
				zap.Int("trades", len(snap.Trades)),
				zap.Int("escrows", len(snap.Escrows)),
				zap.Time("taken_at", snap.TakenAt),
			)
		}
	}

	// Reference data.
	assets.Seed(store.StaticSeeder{}.Assets())

	// Engine and services.
	executor := engine.NewExecutor(assets, trades)
	escrowMgr := service.NewEscrowManager(escrows, trades, service.EscrowConfig{
		Window:        cfg.EscrowWindow,
		DisputeWindow: cfg.DisputeWindow,
		AutoRelease:   cfg.EscrowAutoRelease,
	})
	facade := service.NewFacade(assets, orders, trades, executor, escrowMgr, cfg.BookDepth, logger)

	// Background expiry sweep. The stores expire lazily on read either
	// way; the sweep just surfaces expirations to subscribers promptly.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := engine.NewSweeper(cfg.ExpirySweepInterval, orders, facade.NotifyOrderExpired, logger)
	sweeper.Start(ctx)

	if snapshots != nil {
		go snapshotLoop(ctx, cfg.SnapshotInterval, snapshots, orders, trades, escrows, logger)
	}

	router := handler.NewRouter(facade, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	cancel()

	// Final snapshot so a clean shutdown loses nothing.
	if snapshots != nil {
		saveSnapshot(snapshots, orders, trades, escrows, logger)
	}

	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// snapshotLoop mirrors the in-memory collections to the snapshot store
// at the configured interval.
func snapshotLoop(
	ctx context.Context,
	interval time.Duration,
	snapshots *store.SnapshotStore,
	orders *store.OrderStore,
	trades *store.TradeStore,
	escrows *store.EscrowStore,
	logger *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveSnapshot(snapshots, orders, trades, escrows, logger)
		}
	}
}

func saveSnapshot(
	snapshots *store.SnapshotStore,
	orders *store.OrderStore,
	trades *store.TradeStore,
	escrows *store.EscrowStore,
	logger *zap.Logger,
) {
	snap := &store.Snapshot{
		Orders:  orders.Snapshot(),
		Trades:  trades.Snapshot(),
		Escrows: escrows.Snapshot(),
		TakenAt: time.Now(),
	}
	if err := snapshots.Save(snap); err != nil {
		logger.Error("snapshot save failed", zap.Error(err))
	}
}
