package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSNotifier publishes change events on tracker.changes.<userID>.
type NATSNotifier struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// ConnectNATS dials the NATS server used for change notifications.
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("job-tracker"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return nc, nil
}

func NewNATSNotifier(nc *nats.Conn, logger *zap.Logger) *NATSNotifier {
	return &NATSNotifier{nc: nc, logger: logger}
}

func natsSubject(userID string) string {
	return "tracker.changes." + userID
}

func (n *NATSNotifier) Publish(_ context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := n.nc.Publish(natsSubject(change.UserID), data); err != nil {
		return fmt.Errorf("publish %s: %w", change.Type, err)
	}
	return nil
}

func (n *NATSNotifier) Listen(_ context.Context, userID string) (Listener, error) {
	l := &natsListener{ch: make(chan Change, 1)}
	sub, err := n.nc.Subscribe(natsSubject(userID), func(msg *nats.Msg) {
		var change Change
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			n.logger.Warn("dropping malformed change event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		l.deliver(change)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", natsSubject(userID), err)
	}
	// Flush round-trips to the server so the subscription is live on return.
	if err := n.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("confirm subscription %s: %w", natsSubject(userID), err)
	}
	l.sub = sub
	return l, nil
}

type natsListener struct {
	mu     sync.Mutex
	sub    *nats.Subscription
	ch     chan Change
	closed bool
}

func (l *natsListener) deliver(change Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		offer(l.ch, change)
	}
}

func (l *natsListener) C() <-chan Change { return l.ch }

func (l *natsListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.ch)
	return l.sub.Unsubscribe()
}
