/*
 * @module service/events/mqtt_consumer
 * @description MQTT subscriber for storefront change events
 * @architecture adapter - inbound messaging layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow connect -> subscribe -> decode -> dispatch
 * @rules QoS 1 delivery; a malformed payload is logged and dropped; auto reconnect is left to the client
 * @dependencies github.com/eclipse/paho.mqtt.golang, encoding/json
 * @refs change_event.go
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttConnectTimeout = 10 * time.Second

// MQTTConsumer subscribes to change events on an MQTT topic.
type MQTTConsumer struct {
	client     mqtt.Client
	topic      string
	dispatcher *Dispatcher
}

// NewMQTTConsumerFromEnv builds a consumer from CHANGE_EVENTS_MQTT_BROKER,
// CHANGE_EVENTS_MQTT_TOPIC, CHANGE_EVENTS_MQTT_USERNAME and
// CHANGE_EVENTS_MQTT_PASSWORD. It returns nil when no broker is configured,
// which disables the MQTT intake.
func NewMQTTConsumerFromEnv(dispatcher *Dispatcher) *MQTTConsumer {
	broker := os.Getenv("CHANGE_EVENTS_MQTT_BROKER")
	if broker == "" {
		return nil
	}

	topic := os.Getenv("CHANGE_EVENTS_MQTT_TOPIC")
	if topic == "" {
		topic = "store/change-events"
	}

	hostname, _ := os.Hostname()
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("pennylane-sync-%s-%d", hostname, os.Getpid())).
		SetUsername(os.Getenv("CHANGE_EVENTS_MQTT_USERNAME")).
		SetPassword(os.Getenv("CHANGE_EVENTS_MQTT_PASSWORD")).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	return &MQTTConsumer{
		client:     mqtt.NewClient(opts),
		topic:      topic,
		dispatcher: dispatcher,
	}
}

// Start connects and subscribes.
func (c *MQTTConsumer) Start() error {
	if token := c.client.Connect(); token.WaitTimeout(mqttConnectTimeout) && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	token := c.client.Subscribe(c.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var event ChangeEvent
		if err := json.Unmarshal(msg.Payload(), &event); err != nil {
			slog.Warn("malformed change event dropped", "topic", msg.Topic(), "error", err)
			return
		}
		if err := c.dispatcher.Dispatch(context.Background(), event); err != nil {
			slog.Error("change event dispatch failed",
				"entity_kind", event.EntityKind, "error", err)
		}
	})
	if token.WaitTimeout(mqttConnectTimeout) && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", c.topic, token.Error())
	}

	slog.Info("mqtt change event consumer started", "topic", c.topic)
	return nil
}

// Stop unsubscribes and disconnects.
func (c *MQTTConsumer) Stop() {
	c.client.Unsubscribe(c.topic)
	c.client.Disconnect(250)
	slog.Info("mqtt change event consumer stopped")
}
