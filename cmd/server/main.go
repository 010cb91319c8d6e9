package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"printlab-be/internal/config"
	"printlab-be/internal/db"
	"printlab-be/internal/debt"
	"printlab-be/internal/logger"
	"printlab-be/internal/metrics"
	"printlab-be/internal/order"
	"printlab-be/internal/payout"
	syncsvc "printlab-be/internal/sync"
	"printlab-be/internal/transport"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo)

	syncSvc := syncsvc.NewService(orderRepo)

	payoutRepo := payout.NewRepository(database)
	payoutSvc := payout.NewService(payoutRepo, orderRepo)

	debtRepo := debt.NewRepository(database)
	debtSvc := debt.NewService(debtRepo)

	registry := metrics.NewRegistry()
	handler := transport.NewHandler(orderSvc, syncSvc, payoutSvc, debtSvc, registry)
	router := transport.NewRouter(handler)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L().Info("server starting", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.L().Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("graceful shutdown failed", zap.Error(err))
	}
}
