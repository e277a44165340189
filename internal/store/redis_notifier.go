package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier publishes change events on a per-user Redis channel.
type RedisNotifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger}
}

func redisChannel(userID string) string {
	return "tracker:changes:" + userID
}

func (n *RedisNotifier) Publish(ctx context.Context, change Change) error {
	event, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := n.rdb.Publish(ctx, redisChannel(change.UserID), event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", change.Type, err)
	}
	return nil
}

// Listen subscribes to userID's channel. The subscription is confirmed
// before Listen returns, so no event published afterwards is missed.
func (n *RedisNotifier) Listen(ctx context.Context, userID string) (Listener, error) {
	ps := n.rdb.Subscribe(ctx, redisChannel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", redisChannel(userID), err)
	}

	l := &redisListener{ps: ps, ch: make(chan Change, 1)}
	go l.pump(n.logger)
	return l, nil
}

type redisListener struct {
	ps *redis.PubSub
	ch chan Change
}

func (l *redisListener) pump(logger *zap.Logger) {
	defer close(l.ch)
	for msg := range l.ps.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			logger.Warn("dropping malformed change event",
				zap.String("channel", msg.Channel),
				zap.Error(err))
			continue
		}
		offer(l.ch, change)
	}
}

func (l *redisListener) C() <-chan Change { return l.ch }

// Close unsubscribes; C is closed once the pump drains.
func (l *redisListener) Close() error {
	return l.ps.Close()
}
