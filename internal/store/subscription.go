package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Subscription is a live feed of snapshots for one user.
//
// C receives the current snapshot first and a new one after each change.
// It holds at most one pending snapshot: a slow reader skips intermediate
// states and always sees the latest. C is closed after Close returns or the
// subscribing context ends.
type Subscription struct {
	C <-chan Snapshot

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close stops emissions and releases the underlying listener. It blocks
// until the feed goroutine has exited and is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

type loadFunc func(ctx context.Context) (Snapshot, error)

// watch starts listening before the first load so that a write landing
// between the two is never lost.
func watch(ctx context.Context, userID string, notifier Notifier, load loadFunc, logger *zap.Logger) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	listener, err := notifier.Listen(ctx, userID)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer close(out)
		defer func() {
			if err := listener.Close(); err != nil {
				logger.Warn("closing change listener", zap.String("userId", userID), zap.Error(err))
			}
		}()

		emit := func() bool {
			snap, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				// Keep the feed alive; the next change retries the load.
				logger.Warn("reloading snapshot failed", zap.String("userId", userID), zap.Error(err))
				return true
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-listener.C():
				if !ok {
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return sub, nil
}
