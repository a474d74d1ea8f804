/*
Package main is the entry point for the Parley messaging server.

It loads configuration, initializes logging, connects the durable store
(falling back to volatile mode when Postgres is unreachable), starts the
connectivity monitor and the chat hub, and serves HTTP until an interrupt
triggers graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parley/internal/app/chat"
	"parley/internal/app/message"
	"parley/internal/app/storage"
	"parley/internal/app/store"
	"parley/internal/configs"
	"parley/internal/handler"
	"parley/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("store_ping_interval", cfg.StorePingInterval).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed Postgres connection at startup is not fatal: the server
	// runs in volatile mode for its lifetime instead.
	var durable message.Store
	pool, err := store.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Warn("Durable store unavailable at startup; running in volatile mode", "error", err.Error())
	} else {
		durable = store.NewDurable(pool)
		defer pool.Close()
	}

	monitor := store.NewMonitor(pool, durable, store.NewVolatile(), cfg.StorePingInterval)
	go monitor.Run(ctx)

	var storageService storage.Service
	if cfg.S3BucketName != "" {
		storageService, err = storage.NewService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
	} else {
		logx.Warn("No S3 settings present; upload endpoints disabled")
	}

	svc := message.NewService(monitor)
	hub := chat.NewHub(svc)

	router := handler.Router(&handler.AppDeps{
		Config:  cfg,
		Hub:     hub,
		Service: svc,
		Monitor: monitor,
		Storage: storageService,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Parley server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
