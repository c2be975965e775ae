package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/retry"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitepipe.failures"

// NATSNotifier publishes failures as JSON on a subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	publish func(subject string, data []byte) error
	policy  retry.Policy
}

// NewNATSNotifier connects to url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("sitepipe"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	slog.Info("NATS notifier connected", logfields.URL(url), logfields.Subject(subject))
	return &NATSNotifier{conn: conn, subject: subject, publish: conn.Publish, policy: retry.DefaultPolicy()}, nil
}

func (n *NATSNotifier) Notify(ctx context.Context, ev FailureEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	attempt := 0
	err = n.policy.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			slog.Debug("Retrying failure event publish", logfields.Subject(n.subject), slog.Int("attempt", attempt))
		}
		return n.publish(n.subject, data)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if n.conn != nil {
		timeout := 2 * time.Second
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		if err := n.conn.FlushTimeout(timeout); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
	}
	slog.Debug("Published failure event", logfields.Task(ev.Task), logfields.File(ev.File))
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
