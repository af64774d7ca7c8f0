package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/services/mockstore"
	"github.com/LeonardoBeccarini/biosync/pkg/logging"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// dispositivi dimostrativi, uno per tipo
func demoDevices() []mockstore.Record {
	return []mockstore.Record{
		{"nombre": "Anillo CortiSense", "tipo": string(model.TypeRing), "valor_sensor": 45, "estado": true},
		{"nombre": "Plantilla StepGuard", "tipo": string(model.TypeInsole), "valor_sensor": 30, "estado": true},
		{"nombre": "Pulsera ThermoVibe", "tipo": string(model.TypeWristband), "valor_sensor": 20, "estado": false},
	}
}

func main() {
	_ = godotenv.Load()

	logger := logging.New(env("LOG_LEVEL", "info"), env("LOG_FORMAT", "text"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := mockstore.NewStore()
	collection := env("MOCK_COLLECTION", "dispositivos_IoT")
	if envBool("MOCK_SEED", true) {
		n := store.Seed(collection, demoDevices()...)
		logger.Info("mockstore seeded", "collection", collection, "records", n)
	}

	srv := &http.Server{
		Addr:              ":" + env("PORT", "3001"),
		Handler:           mockstore.NewRouter(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("mockstore listening", "addr", srv.Addr, "collection", "/"+collection)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("mockstore stopped")
}
