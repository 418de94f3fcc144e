package session

import (
	"context"
	"sync"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
)

// ReasonExpired marks session.ended events raised by the sweeper.
const ReasonExpired = "expired"

// Publisher receives session lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ExpiryHook runs for every session the sweeper ends, e.g. to drop
// per-session state held elsewhere.
type ExpiryHook func(sessionID string)

type tracked struct {
	userID    string
	expiresAt time.Time
}

// Sweeper tracks signed-in sessions seen by this process and announces the
// ones whose absolute expiry passed.
type Sweeper struct {
	publisher Publisher
	now       func() time.Time
	onExpire  ExpiryHook

	mu       sync.Mutex
	sessions map[string]tracked
}

// NewSweeper constructs a sweeper. onExpire may be nil.
func NewSweeper(publisher Publisher, now func() time.Time, onExpire ExpiryHook) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		publisher: publisher,
		now:       now,
		onExpire:  onExpire,
		sessions:  make(map[string]tracked),
	}
}

// Track records a live session.
func (s *Sweeper) Track(sessionID, userID string, expiresAt time.Time) {
	if sessionID == "" || userID == "" {
		return
	}
	s.mu.Lock()
	s.sessions[sessionID] = tracked{userID: userID, expiresAt: expiresAt}
	s.mu.Unlock()
}

// Forget stops tracking a session, e.g. after sign-out.
func (s *Sweeper) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Len reports the number of tracked sessions.
func (s *Sweeper) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep ends every expired session and returns how many it ended.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	type expired struct {
		id     string
		userID string
	}
	var due []expired

	s.mu.Lock()
	for id, t := range s.sessions {
		if !now.Before(t.expiresAt) {
			due = append(due, expired{id: id, userID: t.userID})
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, e := range due {
		if s.onExpire != nil {
			s.onExpire(e.id)
		}
		if s.publisher == nil {
			continue
		}
		err := s.publisher.Publish(ctx, events.Event{
			Type:      events.TypeSessionEnded,
			UserID:    e.userID,
			SessionID: e.id,
			Reason:    ReasonExpired,
			At:        now,
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(due), firstErr
}

// Run sweeps on every tick until ctx is done. Publish errors go to onError.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration, onError func(error)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
