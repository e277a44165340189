package kanban

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// Resolver loads the card a start event refers to. store.Store.Get fits.
type Resolver func(ctx context.Context, userID, id string) (tracker.Application, error)

type session struct {
	mu    sync.Mutex
	board *Board

	// lastSeen is guarded by Sessions.mu.
	lastSeen time.Time
}

// Sessions holds one Board per user. Events for the same user run one at a
// time; different users never block each other.
type Sessions struct {
	updater StatusUpdater
	resolve Resolver
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	boards map[string]*session
}

func NewSessions(updater StatusUpdater, resolve Resolver, logger *zap.Logger) *Sessions {
	return &Sessions{
		updater: updater,
		resolve: resolve,
		logger:  logger,
		now:     time.Now,
		boards:  make(map[string]*session),
	}
}

// WithClock replaces the clock used for idle tracking.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	s.now = now
	return s
}

// Dispatch translates ev with the adapter for its input family and feeds
// the result to userID's board.
func (s *Sessions) Dispatch(ctx context.Context, userID string, ev Event) (Feedback, error) {
	adapter, err := AdapterFor(ev.Input)
	if err != nil {
		return Feedback{}, err
	}
	sig, err := adapter.Translate(ev)
	if err != nil {
		return Feedback{}, err
	}

	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sig.Kind == SignalStart {
		item, err := s.resolve(ctx, userID, sig.ApplicationID)
		if err != nil {
			return sess.board.feedback(sig), err
		}
		sig.Item = &item
	}

	fb, err := sess.board.Handle(ctx, sig)
	if err != nil {
		s.logger.Warn("board event failed",
			zap.String("userId", userID),
			zap.String("event", ev.Type),
			zap.Error(err))
		return fb, err
	}
	if fb.Result != nil && fb.Result.Outcome == OutcomeMoved {
		s.logger.Info("application moved",
			zap.String("userId", userID),
			zap.String("applicationId", fb.Result.ApplicationID),
			zap.String("from", string(fb.Result.From)),
			zap.String("to", string(fb.Result.To)))
	}
	return fb, nil
}

// State reports userID's current gesture state.
func (s *Sessions) State(userID string) State {
	s.mu.Lock()
	sess, ok := s.boards[userID]
	s.mu.Unlock()
	if !ok {
		return StateIdle
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.board.State()
}

// Len is the number of tracked boards.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}

// Expire cancels and forgets boards that have seen no event for longer
// than idle. Boards busy handling an event are left alone.
func (s *Sessions) Expire(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for userID, sess := range s.boards {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			sess.board.Cancel()
			delete(s.boards, userID)
			expired++
		}
		sess.mu.Unlock()
	}
	return expired
}

func (s *Sessions) session(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.boards[userID]
	if !ok {
		sess = &session{board: NewBoard(userID, s.updater)}
		s.boards[userID] = sess
	}
	sess.lastSeen = s.now()
	return sess
}
