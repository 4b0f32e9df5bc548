package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"momo-proxy-backend/internal/config"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/service"
	"momo-proxy-backend/internal/utils"
)

// NoticeHandler is the part of reconciliation the consumer drives.
type NoticeHandler interface {
	HandleNotice(ctx context.Context, raw string) (*service.NoticeResult, error)
}

// NoticeConsumer feeds confirmation notices published on RabbitMQ into
// reconciliation. It is the broker-side twin of the ingest webhook.
type NoticeConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	handler NoticeHandler
}

// NewNoticeConsumer connects and declares the exchange, queue and binding.
func NewNoticeConsumer(cfg config.RabbitMQConfig, handler NoticeHandler) (*NoticeConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	// One unacked notice at a time.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	logger.Info("RabbitMQ notice consumer initialized",
		"exchange", cfg.Exchange, "queue", cfg.Queue, "routing_key", cfg.RoutingKey)

	return &NoticeConsumer{
		conn:    conn,
		channel: channel,
		config:  cfg,
		handler: handler,
	}, nil
}

// Start consumes until ctx is cancelled or the broker closes the channel.
func (c *NoticeConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.config.Queue, // queue
		"",             // consumer tag (auto-generated)
		false,          // auto-ack (we'll ack manually)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Info("RabbitMQ notice consumer started", "queue", c.config.Queue)
	return consume(ctx, msgs, c.handler)
}

func consume(ctx context.Context, msgs <-chan amqp.Delivery, handler NoticeHandler) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping notice consumer")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			deliver(ctx, msg, handler)
		}
	}
}

// deliver handles one message and settles it with the broker. A failed
// notice is requeued once; a second failure drops it so a poison message
// cannot spin forever.
func deliver(ctx context.Context, msg amqp.Delivery, handler NoticeHandler) {
	raw := utils.DecodeNotice(msg.Body)
	if strings.TrimSpace(raw) == "" {
		logger.Warn("Dropping empty notice", "delivery_tag", msg.DeliveryTag)
		_ = msg.Ack(false)
		return
	}

	result, err := handler.HandleNotice(ctx, raw)
	if err != nil {
		requeue := !msg.Redelivered
		logger.Error("Failed to handle notice", "error", err, "requeue", requeue)
		_ = msg.Nack(false, requeue)
		return
	}

	logger.Debug("Notice handled", "finalized", result.Finalized, "dropped", result.Dropped)
	_ = msg.Ack(false)
}

// Close closes the RabbitMQ channel and connection
func (c *NoticeConsumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			logger.Warn("Error closing channel", "error", err)
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
