package rabbitmq

import (
	"context"
	"log/slog"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IConsumer interface defines the ConsumeMessage method with dependencies T
type IConsumer[T any] interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler func(queue string, message mqtt.Message) error)
}

// Consumer holds the client and topic for subscribing
type Consumer struct {
	client  mqtt.Client
	handler func(queue string, message mqtt.Message) error
	topic   string
}

func NewConsumer(client mqtt.Client, topic string, handler func(queue string, message mqtt.Message) error) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler func(queue string, message mqtt.Message) error) {
	c.handler = handler
}

// comandi e alert: QoS1 (possibili redelivery, gestite con dedup)
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "biosync/commands") ||
		strings.HasPrefix(t, "biosync/alerts") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes to the topic and processes messages using the handler
// It blocks until the context is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(
		c.topic,
		qosFor(c.topic),
		func(_ mqtt.Client, message mqtt.Message) {
			if c.handler == nil {
				slog.Warn("no handler set for topic", "topic", c.topic)
				return
			}
			if err := c.handler(c.topic, message); err != nil {
				slog.Error("error handling message", "topic", message.Topic(), "err", err)
			}
		},
	)

	if token.Wait() && token.Error() != nil {
		slog.Error("error subscribing to topic", "topic", c.topic, "err", token.Error())
		return
	}

	slog.Info("subscribed to topic", "topic", c.topic)

	<-ctx.Done()

	unsubToken := c.client.Unsubscribe(c.topic)
	unsubToken.Wait()
}
