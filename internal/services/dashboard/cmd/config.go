package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultStoreURL = "https://698605d26964f10bf255430b.mockapi.io/api/v1/dispositivos_IoT"

type Config struct {
	Port string

	StoreURL     string
	StoreTimeout time.Duration
	CBFails      int
	CBOpen       time.Duration

	PollInterval  time.Duration
	HistoryPoints int
	HistoryRows   int
	ModalCooldown time.Duration
	DedupTTL      time.Duration
	SimSeed       int64

	CORSOrigins []string
	StaticDir   string

	LogLevel  string
	LogFormat string

	// MQTT opzionale (RabbitMQ con plugin MQTT o Mosquitto)
	MQTTEnabled  bool
	MQTTHost     string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// accetta "2s", "500ms", ...
func getenvDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			return dur
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func getenvList(k string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(k), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadConfig() Config {
	return Config{
		Port: getenv("HTTP_PORT", "8080"),

		StoreURL:     getenv("STORE_URL", defaultStoreURL),
		StoreTimeout: getenvDuration("STORE_TIMEOUT", 5*time.Second),
		CBFails:      getenvInt("CB_FAILS", 5),
		CBOpen:       getenvDuration("CB_OPEN", 10*time.Second),

		PollInterval:  getenvDuration("POLL_INTERVAL", 2*time.Second),
		HistoryPoints: getenvInt("HISTORY_POINTS", 30),
		HistoryRows:   getenvInt("HISTORY_ROWS", 10),
		ModalCooldown: getenvDuration("MODAL_COOLDOWN", 10*time.Second),
		DedupTTL:      getenvDuration("ALERT_DEDUP_TTL", time.Hour),
		SimSeed:       int64(getenvInt("SIM_SEED", 0)),

		CORSOrigins: getenvList("CORS_ORIGINS"),
		StaticDir:   getenv("STATIC_DIR", ""),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),

		MQTTEnabled:  getenvBool("MQTT_ENABLED", false),
		MQTTHost:     getenv("MQTT_HOST", "localhost"),
		MQTTPort:     getenvInt("MQTT_PORT", 1883),
		MQTTUser:     getenv("MQTT_USER", "guest"),
		MQTTPassword: getenv("MQTT_PASSWORD", "guest"),
		MQTTClientID: getenv("MQTT_CLIENT_ID", "biosync-dashboard"),
	}
}
