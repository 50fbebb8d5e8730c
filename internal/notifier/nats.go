package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/internal/metrics"
	"github.com/pricewatch/engine/pkg/model"
)

// NATSNotifier publishes alert notifications to a NATS JetStream subject
// wrapped in the canonical envelope.
type NATSNotifier struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *zap.Logger
}

// NewNATS connects the notifier to an existing NATS connection.
func NewNATS(nc *nats.Conn, subject string, logger *zap.Logger) (*NATSNotifier, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSNotifier{nc: nc, js: js, subject: subject, logger: logger}, nil
}

func (p *NATSNotifier) Publish(ctx context.Context, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		metrics.NotifyErrors.WithLabelValues("nats").Inc()
		return fmt.Errorf("marshal notification: %w", err)
	}

	env := model.NewEnvelope(EventTypeAlertFired, "v1", payload)
	data, err := json.Marshal(env)
	if err != nil {
		metrics.NotifyErrors.WithLabelValues("nats").Inc()
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{env.EventType},
			"alert_id":     []string{n.AlertID.String()},
			"content_type": []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg); err != nil {
		p.logger.Error("notifier.nats.publish_failed",
			zap.String("subject", p.subject),
			zap.String("alert_id", n.AlertID.String()),
			zap.Error(err))
		metrics.NotifyErrors.WithLabelValues("nats").Inc()
		return err
	}

	p.logger.Info("notifier.nats.published",
		zap.String("subject", p.subject),
		zap.String("alert_id", n.AlertID.String()),
		zap.String("product_id", n.ProductID),
	)
	return nil
}

func (p *NATSNotifier) Close() error {
	return p.nc.Drain()
}
