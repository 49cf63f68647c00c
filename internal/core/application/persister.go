package application

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/core/domain"
	"github.com/walletd/walletd/internal/core/ports"
	"github.com/walletd/walletd/pkg/circuitbreaker"
	"github.com/walletd/walletd/pkg/stats"
)

const persistTimeout = 10 * time.Second

// persister writes session snapshots in background so that a slow store
// never holds the session guard. Only the latest pending snapshot is kept,
// snapshots are written in the order they were taken.
type persister struct {
	repo ports.SessionRepository
	cb   *gobreaker.CircuitBreaker

	lock    sync.Mutex
	pending *domain.SessionInfo

	notify chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

func newPersister(repo ports.SessionRepository) *persister {
	p := &persister{
		repo:   repo,
		cb:     circuitbreaker.NewCircuitBreaker("session-store"),
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.listen()
	return p
}

func (p *persister) enqueue(info domain.SessionInfo) {
	p.lock.Lock()
	p.pending = &info
	p.lock.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// stop writes the last pending snapshot, if any, and waits for the
// background routine to exit
func (p *persister) stop() {
	close(p.quit)
	<-p.done
}

func (p *persister) listen() {
	defer close(p.done)

	for {
		select {
		case <-p.notify:
			p.flush()
		case <-p.quit:
			p.flush()
			return
		}
	}
}

func (p *persister) flush() {
	p.lock.Lock()
	info := p.pending
	p.pending = nil
	p.lock.Unlock()

	if info == nil {
		return
	}

	_, err := p.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		return nil, p.repo.SaveSession(ctx, *info)
	})
	if err != nil {
		stats.PersistenceFailures.Inc()
		log.WithError(err).Warn("failed to persist session")
	}
}
