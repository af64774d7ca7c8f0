package dashboard

import (
	"context"
	"fmt"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/model/messages"
	"github.com/LeonardoBeccarini/biosync/pkg/rabbitmq"
)

const (
	TopicAlerts   = "biosync/alerts"
	TopicState    = "biosync/state"    // biosync/state/<tipo>/<id>
	TopicCommands = "biosync/commands" // biosync/commands/<id>
)

// Notifier inoltra alert e cambi di stato fuori dal processo.
type Notifier interface {
	NotifyAlert(ctx context.Context, a model.Alert) error
	NotifyState(ctx context.Context, evt model.StateChangeEvent) error
}

type NoopNotifier struct{}

func (NoopNotifier) NotifyAlert(context.Context, model.Alert) error { return nil }

func (NoopNotifier) NotifyState(context.Context, model.StateChangeEvent) error { return nil }

// MQTTNotifier pubblica su broker MQTT.
type MQTTNotifier struct {
	pub rabbitmq.IPublisher
}

func NewMQTTNotifier(pub rabbitmq.IPublisher) *MQTTNotifier {
	return &MQTTNotifier{pub: pub}
}

func (n *MQTTNotifier) NotifyAlert(_ context.Context, a model.Alert) error {
	if err := n.pub.PublishMessage(messages.NewAlertEvent(a)); err != nil {
		return fmt.Errorf("publish alert %s: %w", a.ID, err)
	}
	return nil
}

func (n *MQTTNotifier) NotifyState(_ context.Context, evt model.StateChangeEvent) error {
	topic := fmt.Sprintf("%s/%s/%s", TopicState, evt.Tipo, evt.DeviceID)
	if err := n.pub.PublishTo(topic, evt); err != nil {
		return fmt.Errorf("publish state change for %s: %w", evt.DeviceID, err)
	}
	return nil
}
