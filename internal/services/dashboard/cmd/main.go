package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/biosync/internal/devicestore"
	sim "github.com/LeonardoBeccarini/biosync/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/biosync/internal/services/dashboard"
	"github.com/LeonardoBeccarini/biosync/internal/session"
	"github.com/LeonardoBeccarini/biosync/pkg/logging"
	"github.com/LeonardoBeccarini/biosync/pkg/rabbitmq"
)

func main() {
	// .env opzionale
	envErr := godotenv.Load()

	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("could not load .env", "err", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := dashboard.NewMetrics(prometheus.DefaultRegisterer)

	store := devicestore.New(devicestore.Config{
		BaseURL:         cfg.StoreURL,
		Timeout:         cfg.StoreTimeout,
		BreakerFailures: cfg.CBFails,
		BreakerOpenFor:  cfg.CBOpen,
		Logger:          logger,
		OnError:         metrics.StoreError,
	})

	sess := session.New(session.Config{
		HistoryPoints: cfg.HistoryPoints,
		HistoryRows:   cfg.HistoryRows,
		ModalCooldown: cfg.ModalCooldown,
		DedupTTL:      cfg.DedupTTL,
	})

	hub := dashboard.NewHub(cfg.CORSOrigins, logger)
	renderer := dashboard.MultiRenderer{hub, dashboard.NewLogRenderer(logger)}

	// MQTT: notifiche in uscita e comandi in ingresso
	var (
		notifier   dashboard.Notifier = dashboard.NoopNotifier{}
		mqttClient mqtt.Client
	)
	if cfg.MQTTEnabled {
		client, err := rabbitmq.NewRabbitMQConn(&rabbitmq.RabbitMQConfig{
			Host:     cfg.MQTTHost,
			Port:     cfg.MQTTPort,
			User:     cfg.MQTTUser,
			Password: cfg.MQTTPassword,
			ClientID: cfg.MQTTClientID,
		}, ctx)
		if err != nil {
			// la dashboard resta utilizzabile anche senza broker
			logger.Error("mqtt disabled", "err", err)
		} else {
			mqttClient = client
			notifier = dashboard.NewMQTTNotifier(rabbitmq.NewPublisher(client, dashboard.TopicAlerts))
		}
	}

	d := dashboard.New(dashboard.Config{
		Interval: cfg.PollInterval,
		Rand:     sim.NewRand(cfg.SimSeed),
		Logger:   logger,
	}, store, sess, renderer, notifier, metrics)

	if mqttClient != nil {
		cmds := dashboard.NewCommandHandler(d, 30*time.Second, logger)
		go cmds.Run(ctx, rabbitmq.NewConsumer(mqttClient, dashboard.TopicCommands+"/#", nil))
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: dashboard.NewRouter(d, dashboard.RouterConfig{
			Hub:       hub,
			Metrics:   promhttp.Handler(),
			MQTT:      mqttClient,
			StaticDir: cfg.StaticDir,
			Origins:   cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	d.Start(ctx)
	go func() {
		logger.Info("dashboard listening", "addr", srv.Addr, "store", cfg.StoreURL, "interval", cfg.PollInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	d.Stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	rabbitmq.CloseRabbitMQConn(mqttClient)
}
