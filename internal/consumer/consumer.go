package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"order-intake-service/internal/service"
	"strings"
	"time"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	orderSvc *service.OrderService
	reader   messageReader
}

func NewConsumer(orderSvc *service.OrderService, reader *kafka.Reader) *Consumer {
	return &Consumer{orderSvc: orderSvc, reader: reader}
}

// StartKafkaConsumer reads delivery retries until ctx is cancelled.
func (c *Consumer) StartKafkaConsumer(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles one message from the retry topic.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	// key -> "order.notify_retry.<orderID>"
	listKey := strings.Split(string(msg.Key), ".")
	if len(listKey) < 3 {
		log.Error().Msgf("Malformed message key: %q", msg.Key)
		return
	}
	eventType := listKey[1]

	switch eventType {
	case "notify_retry":
		var retry service.NotifyRetry
		if err := json.Unmarshal(msg.Value, &retry); err != nil {
			log.Error().Msgf("Error unmarshalling message: %v", err)
			return
		}
		if !waitUntil(ctx, retry.NotBefore) {
			return
		}
		if err := c.orderSvc.RetryNotification(ctx, retry); err != nil {
			log.Error().Msgf("Delivery retry %d for order %s failed: %v", retry.Attempt, listKey[2], err)
			return
		}
		log.Info().Msgf("Delivery retry %d for order %s succeeded", retry.Attempt, listKey[2])
	default:
		log.Error().Msgf("Unknown event type: %s", eventType)
	}
}

func waitUntil(ctx context.Context, t time.Time) bool {
	wait := time.Until(t)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
