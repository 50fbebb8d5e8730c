package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/internal/metrics"
	"github.com/pricewatch/engine/pkg/model"
)

// AMQPNotifier publishes alert notifications to a RabbitMQ exchange, for
// deployments whose notification consumers already live on AMQP.
type AMQPNotifier struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewAMQP dials RabbitMQ and declares a durable topic exchange.
func NewAMQP(url, exchange, routingKey string, logger *zap.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPNotifier{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (p *AMQPNotifier) Publish(ctx context.Context, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		metrics.NotifyErrors.WithLabelValues("amqp").Inc()
		return fmt.Errorf("marshal notification: %w", err)
	}

	env := model.NewEnvelope(EventTypeAlertFired, "v1", payload)
	body, err := json.Marshal(env)
	if err != nil {
		metrics.NotifyErrors.WithLabelValues("amqp").Inc()
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   env.ID.String(),
		Type:        env.EventType,
		Timestamp:   env.Timestamp,
		Body:        body,
	})
	if err != nil {
		p.logger.Error("notifier.amqp.publish_failed",
			zap.String("exchange", p.exchange),
			zap.String("alert_id", n.AlertID.String()),
			zap.Error(err))
		metrics.NotifyErrors.WithLabelValues("amqp").Inc()
		return err
	}

	p.logger.Info("notifier.amqp.published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", p.routingKey),
		zap.String("alert_id", n.AlertID.String()),
	)
	return nil
}

func (p *AMQPNotifier) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
