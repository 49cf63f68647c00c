package application_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/walletd/walletd/internal/core/domain"
)

// **** Session repository ****

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) GetSession(
	ctx context.Context,
) (*domain.SessionInfo, error) {
	args := m.Called(ctx)

	var res *domain.SessionInfo
	if a := args.Get(0); a != nil {
		res = a.(*domain.SessionInfo)
	}
	return res, args.Error(1)
}

func (m *mockSessionRepository) SaveSession(
	ctx context.Context,
	info domain.SessionInfo,
) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

func (m *mockSessionRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// inMemorySessionRepository keeps the last saved session and counts writes
type inMemorySessionRepository struct {
	lock  sync.Mutex
	info  *domain.SessionInfo
	saves int
}

func (r *inMemorySessionRepository) GetSession(
	_ context.Context,
) (*domain.SessionInfo, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.info == nil {
		return nil, nil
	}
	info := *r.info
	return &info, nil
}

func (r *inMemorySessionRepository) SaveSession(
	_ context.Context, info domain.SessionInfo,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.info = &info
	r.saves++
	return nil
}

func (r *inMemorySessionRepository) Close() error {
	return nil
}

func (r *inMemorySessionRepository) last() *domain.SessionInfo {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.info
}
