// Package notifier delivers alert notifications to a message broker.
// Transport past the broker (push, email, in-app) belongs to downstream
// consumers.
package notifier

import (
	"context"
	"sync"

	"github.com/pricewatch/engine/pkg/model"
)

// EventTypeAlertFired is the envelope event type for price-drop alerts.
const EventTypeAlertFired = "price_alert.fired"

// Notifier publishes a notification to a delivery channel.
type Notifier interface {
	Publish(ctx context.Context, n model.Notification) error
	Close() error
}

// Memory collects notifications in a slice. Used in tests and when no
// broker is configured.
type Memory struct {
	mu   sync.Mutex
	sent []model.Notification
}

// NewMemory returns an empty in-memory notifier.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(ctx context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *Memory) Close() error { return nil }

// Sent returns a copy of everything published so far.
func (m *Memory) Sent() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
