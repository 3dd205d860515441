// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenadx/carbonledger/api"
	"github.com/greenadx/carbonledger/fhe"
	"github.com/greenadx/carbonledger/internal/config"
	"github.com/greenadx/carbonledger/ledger"
	"github.com/greenadx/carbonledger/pkg/log"
	"github.com/greenadx/carbonledger/pkg/metric"
	"github.com/greenadx/carbonledger/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	fmt.Printf("Carbon Ledger Daemon (carbonledgerd) %s (commit: %s, built: %s)\n",
		Version, GitCommit, BuildTime)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithLevel(cfg.LogLevel)
	defer logger.Sync()

	store, err := storage.NewKVStore(cfg.DBType, cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open store", log.Error(err))
	}
	defer store.Close()

	estimator, err := buildEstimator(cfg)
	if err != nil {
		logger.Fatal("failed to build estimator", log.Error(err))
	}

	sealer, err := buildSealer(cfg)
	if err != nil {
		logger.Fatal("failed to build sealer", log.Error(err))
	}

	metrics, err := metric.NewMetrics()
	if err != nil {
		logger.Fatal("failed to register metrics", log.Error(err))
	}

	led := ledger.NewLedger(store, estimator, sealer, logger,
		ledger.WithMetrics(metrics))

	hub := api.NewHub(logger)
	defer hub.Close()

	apiServer := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewServer(led, hub, metrics, logger).Router(),
	}
	opsServer := &http.Server{
		Addr:    cfg.OpsAddr,
		Handler: opsRouter(metrics, led),
	}

	go func() {
		logger.Info("api server listening", log.String("addr", cfg.APIAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server failed", log.Error(err))
		}
	}()
	go func() {
		logger.Info("ops server listening", log.String("addr", cfg.OpsAddr))
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops server failed", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Warn("api server shutdown", log.Error(err))
	}
	if err := opsServer.Shutdown(ctx); err != nil {
		logger.Warn("ops server shutdown", log.Error(err))
	}
}

func buildEstimator(cfg config.Config) (ledger.Estimator, error) {
	switch cfg.Estimator {
	case "paillier":
		scheme, err := fhe.NewPaillier(cfg.PaillierBits)
		if err != nil {
			return nil, err
		}
		return fhe.NewHomomorphicEstimator(scheme), nil
	case "linear", "":
		return fhe.NewLinearEstimator(), nil
	default:
		return nil, fmt.Errorf("unknown estimator %q", cfg.Estimator)
	}
}

func buildSealer(cfg config.Config) (ledger.Sealer, error) {
	switch cfg.Sealer {
	case "hpke":
		pub, err := base64.StdEncoding.DecodeString(cfg.SealKey)
		if err != nil {
			return nil, fmt.Errorf("decoding SEAL_KEY: %w", err)
		}
		return fhe.NewHPKESealer(pub)
	case "base64", "":
		return fhe.NewBase64Sealer(), nil
	default:
		return nil, fmt.Errorf("unknown sealer %q", cfg.Sealer)
	}
}

func opsRouter(metrics *metric.Metrics, led *ledger.Ledger) http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(metrics.GetGatherer(), promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !led.IsAvailable() {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return router
}
