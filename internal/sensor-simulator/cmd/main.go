// Simulatore headless: fa evolvere le letture dello store senza dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LeonardoBeccarini/biosync/internal/devicestore"
	sensorSimulator "github.com/LeonardoBeccarini/biosync/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/biosync/pkg/logging"
)

const defaultStoreURL = "https://698605d26964f10bf255430b.mockapi.io/api/v1/dispositivos_IoT"

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	// define flags
	storeURL := flag.String("store", env("STORE_URL", defaultStoreURL), "device store collection URL")
	interval := flag.Duration("interval", 2*time.Second, "simulation step interval")
	seed := flag.Int64("seed", 0, "random seed (0 = time based)")
	once := flag.Bool("once", false, "run a single step and exit")
	flag.Parse()

	logger := logging.New(env("LOG_LEVEL", "info"), env("LOG_FORMAT", "text"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := devicestore.New(devicestore.Config{BaseURL: *storeURL, Logger: logger})
	simulator := sensorSimulator.NewSimulator(store, sensorSimulator.NewRand(*seed), logger)

	step := func() {
		devices := store.List(ctx)
		res := simulator.Step(ctx, devices)
		logger.Info("step", "devices", len(res.Devices), "writes", res.Writes, "failed", res.Failed,
			"reachable", store.Status().Reachable)
	}

	step()
	if *once {
		return
	}

	t := time.NewTicker(*interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("simulator stopped")
			return
		case <-t.C:
			step()
		}
	}
}
