package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// MemoryStore keeps applications in process. It backs STORE_DRIVER=memory
// and the tests of every package above the store.
type MemoryStore struct {
	mu       sync.RWMutex
	apps     map[string]tracker.Application
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewMemoryStore(notifier Notifier, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		apps:     make(map[string]tracker.Application),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source; updatedAt is kept strictly increasing.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	return watch(ctx, userID, s.notifier, func(ctx context.Context) (Snapshot, error) {
		return s.List(ctx, userID)
	}, s.logger)
}

func (s *MemoryStore) List(_ context.Context, userID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := make([]tracker.Application, 0)
	for _, a := range s.apps {
		if a.UserID == userID {
			apps = append(apps, a.Clone())
		}
	}
	return NewSnapshot(userID, apps), nil
}

func (s *MemoryStore) Get(_ context.Context, userID, id string) (tracker.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.apps[id]
	if !ok || a.UserID != userID {
		return tracker.Application{}, apperr.NotFound("application not found", nil)
	}
	return a.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, userID string, draft tracker.Draft) (tracker.Application, error) {
	if userID == "" {
		return tracker.Application{}, apperr.StoreWrite("create rejected: missing owner", nil)
	}

	s.mu.Lock()
	a, err := tracker.NewApplication(uuid.NewString(), userID, draft, s.tick())
	if err != nil {
		s.mu.Unlock()
		return tracker.Application{}, apperr.Validation(err.Error(), err)
	}
	s.apps[a.ID] = a
	s.mu.Unlock()

	s.publish(ctx, Change{Type: EventApplicationCreated, UserID: userID, ApplicationID: a.ID})
	return a.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, userID, id string, patch tracker.Patch) (tracker.Application, error) {
	s.mu.Lock()
	current, ok := s.apps[id]
	if !ok || current.UserID != userID {
		s.mu.Unlock()
		return tracker.Application{}, apperr.StoreWrite("update failed", apperr.NotFound("application not found", nil))
	}
	next, err := current.Apply(patch)
	if err != nil {
		s.mu.Unlock()
		return tracker.Application{}, apperr.Validation(err.Error(), err)
	}
	next.UpdatedAt = s.tick()
	s.apps[id] = next
	s.mu.Unlock()

	s.publish(ctx, Change{Type: EventApplicationUpdated, UserID: userID, ApplicationID: id, Fields: patch.Fields()})
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	current, ok := s.apps[id]
	if !ok || current.UserID != userID {
		s.mu.Unlock()
		return apperr.StoreWrite("delete failed", apperr.NotFound("application not found", nil))
	}
	delete(s.apps, id)
	s.mu.Unlock()

	s.publish(ctx, Change{Type: EventApplicationDeleted, UserID: userID, ApplicationID: id})
	return nil
}

// tick returns the next write timestamp. Callers hold s.mu.
func (s *MemoryStore) tick() time.Time {
	t := s.now().UTC()
	for _, a := range s.apps {
		if !t.After(a.UpdatedAt) {
			t = a.UpdatedAt.Add(time.Nanosecond)
		}
	}
	return t
}

// publish is non-fatal: the write already happened.
func (s *MemoryStore) publish(ctx context.Context, change Change) {
	change.At = s.now().UTC()
	if err := s.notifier.Publish(ctx, change); err != nil {
		s.logger.Warn("publish change failed",
			zap.String("type", change.Type),
			zap.String("applicationId", change.ApplicationID),
			zap.Error(err))
	}
}
