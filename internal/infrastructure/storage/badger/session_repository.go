package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
	"github.com/walletd/walletd/internal/core/domain"
	"github.com/walletd/walletd/internal/core/ports"
)

const (
	sessionDir = "session"
	sessionKey = "session"
)

type sessionRepository struct {
	store  *badgerhold.Store
	quitGC chan struct{}
	once   sync.Once
}

// NewSessionRepository opens (or creates if not exists) the session store
// under baseDbDir. With an empty baseDbDir the store is kept in memory.
func NewSessionRepository(
	baseDbDir string, logger badger.Logger,
) (ports.SessionRepository, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, sessionDir)
	}

	store, quit, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	return &sessionRepository{store: store, quitGC: quit}, nil
}

func (r *sessionRepository) GetSession(
	ctx context.Context,
) (*domain.SessionInfo, error) {
	var info domain.SessionInfo
	if err := r.store.Get(sessionKey, &info); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

func (r *sessionRepository) SaveSession(
	ctx context.Context, info domain.SessionInfo,
) error {
	return r.store.Upsert(sessionKey, &info)
}

func (r *sessionRepository) Close() error {
	var err error
	r.once.Do(func() {
		close(r.quitGC)
		err = r.store.Close()
	})
	return err
}
