package application

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Handle gives exclusive access to a Session. It is meant to be created once
// and shared by every component that reads or mutates the session.
type Handle struct {
	sem     *semaphore.Weighted
	session *Session
}

func NewHandle(session *Session) *Handle {
	return &Handle{
		sem:     semaphore.NewWeighted(1),
		session: session,
	}
}

// Guard is the exclusive borrow of the session obtained with Handle.Lock.
// The embedded session must not be used after Unlock.
type Guard struct {
	*Session

	handle *Handle
	once   sync.Once
}

// Unlock releases the session, it is safe to call it more than once
func (g *Guard) Unlock() {
	g.once.Do(func() {
		g.handle.sem.Release(1)
	})
}

// Lock waits until the session is available or ctx is done
func (h *Handle) Lock(ctx context.Context) (*Guard, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Guard{Session: h.session, handle: h}, nil
}

// Do runs fn while holding the session
func (h *Handle) Do(ctx context.Context, fn func(*Session) error) error {
	guard, err := h.Lock(ctx)
	if err != nil {
		return err
	}
	defer guard.Unlock()

	return fn(guard.Session)
}
