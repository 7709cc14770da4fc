/*
 * @module service/events/kafka_consumer
 * @description Kafka consumer for storefront change events
 * @architecture adapter - inbound messaging layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow connect -> read loop -> decode -> dispatch -> commit via group offsets
 * @rules a malformed message is logged and skipped; the loop survives transient broker errors
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs change_event.go
 */

package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer reads change events from a Kafka topic.
type KafkaConsumer struct {
	reader     *kafka.Reader
	dispatcher *Dispatcher
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewKafkaConsumerFromEnv builds a consumer from CHANGE_EVENTS_KAFKA_BROKERS,
// CHANGE_EVENTS_KAFKA_TOPIC and CHANGE_EVENTS_KAFKA_GROUP. It returns nil when
// no brokers are configured, which disables the Kafka intake.
func NewKafkaConsumerFromEnv(dispatcher *Dispatcher) *KafkaConsumer {
	brokers := os.Getenv("CHANGE_EVENTS_KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}

	topic := os.Getenv("CHANGE_EVENTS_KAFKA_TOPIC")
	if topic == "" {
		topic = "store-change-events"
	}
	group := os.Getenv("CHANGE_EVENTS_KAFKA_GROUP")
	if group == "" {
		group = "pennylane-sync-service"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  strings.Split(brokers, ","),
			Topic:    topic,
			GroupID:  group,
			MinBytes: 1,
			MaxBytes: 1 << 20,
			MaxWait:  time.Second,
		}),
		dispatcher: dispatcher,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start launches the read loop.
func (c *KafkaConsumer) Start() {
	slog.Info("kafka change event consumer started",
		"topic", c.reader.Config().Topic, "group", c.reader.Config().GroupID)

	go func() {
		defer close(c.done)
		for {
			msg, err := c.reader.ReadMessage(c.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				slog.Error("kafka read failed", "error", err)
				time.Sleep(time.Second)
				continue
			}

			var event ChangeEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Warn("malformed change event skipped",
					"offset", msg.Offset, "error", err)
				continue
			}

			if err := c.dispatcher.Dispatch(c.ctx, event); err != nil {
				slog.Error("change event dispatch failed",
					"entity_kind", event.EntityKind, "error", err)
			}
		}
	}()
}

// Stop cancels the read loop and closes the reader.
func (c *KafkaConsumer) Stop() {
	c.cancel()
	if err := c.reader.Close(); err != nil {
		slog.Error("kafka reader close failed", "error", err)
	}
	<-c.done
	slog.Info("kafka change event consumer stopped")
}
