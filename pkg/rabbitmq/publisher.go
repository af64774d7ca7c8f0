package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/eclipse/paho.mqtt.golang"
)

// IPublisher interface defines the method to publish a message
type IPublisher interface {
	PublishMessage(message interface{}) error
	PublishTo(topic string, message interface{}) error
}

// Publisher pubblica sul topic di default o su un topic esplicito.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishMessage publishes a message to the default topic
func (p *Publisher) PublishMessage(message interface{}) error {
	return p.PublishTo(p.topic, message)
}

// PublishTo accetta string, []byte o qualsiasi valore serializzabile in JSON.
func (p *Publisher) PublishTo(topic string, message interface{}) error {
	var payload []byte
	switch m := message.(type) {
	case string:
		payload = []byte(m)
	case []byte:
		payload = m
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("invalid message format: %w", err)
		}
		payload = b
	}

	token := p.client.Publish(topic, qosFor(topic), false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}

	slog.Debug("message published", "topic", topic, "bytes", len(payload))
	return nil
}
