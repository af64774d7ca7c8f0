package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/pkg/dedup"
	"github.com/LeonardoBeccarini/biosync/pkg/rabbitmq"
)

// CommandHandler trasforma i comandi MQTT in toggle, sullo stesso percorso
// serializzato degli eventi utente.
type CommandHandler struct {
	d       *Dashboard
	deduper *dedup.Deduper
	logger  *slog.Logger
	timeout time.Duration
}

// NewCommandHandler: window è la finestra in cui un payload identico viene
// considerato una redelivery.
func NewCommandHandler(d *Dashboard, window time.Duration, logger *slog.Logger) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = 30 * time.Second
	}
	return &CommandHandler{
		d:       d,
		deduper: dedup.New(window, 1000),
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// Run collega l'handler al consumer e blocca fino alla cancellazione di ctx.
func (h *CommandHandler) Run(ctx context.Context, c rabbitmq.IConsumer[model.CommandEvent]) {
	c.SetHandler(h.Handle)
	c.ConsumeMessage(ctx)
}

// Handle ha la firma attesa da rabbitmq.Consumer.
func (h *CommandHandler) Handle(_ string, msg mqtt.Message) error {
	// scarta redelivery QoS1 identiche; il topic fa parte della chiave
	// perché può contenere l'id. La chiave si registra solo a comando
	// eseguito, così un toggle fallito può essere riconsegnato.
	sum := sha256.Sum256(append([]byte(msg.Topic()+"\n"), msg.Payload()...))
	key := hex.EncodeToString(sum[:])
	if h.deduper.Seen(key) {
		h.logger.Debug("command: duplicate payload dropped", "topic", msg.Topic())
		return nil
	}

	var cmd model.CommandEvent
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		return fmt.Errorf("command on %s: bad payload: %w", msg.Topic(), err)
	}
	id := strings.TrimSpace(cmd.DeviceID)
	if id == "" {
		id = topicID(msg.Topic())
	}
	if id == "" {
		return fmt.Errorf("command on %s: missing device id", msg.Topic())
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	applied, err := h.d.ToggleDevice(ctx, id, cmd.Estado, "mqtt")
	if err != nil {
		return fmt.Errorf("command toggle %s: %w", id, err)
	}
	if !applied {
		h.logger.Info("command: unknown device", "id", id)
	}
	h.deduper.ShouldProcess(key)
	return nil
}

// biosync/commands/<id> -> <id>
func topicID(topic string) string {
	rest, ok := strings.CutPrefix(topic, TopicCommands+"/")
	if !ok || strings.Contains(rest, "/") {
		return ""
	}
	return strings.TrimSpace(rest)
}
