package dbbadger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/walletd/walletd/internal/core/domain"
	dbbadger "github.com/walletd/walletd/internal/infrastructure/storage/badger"
)

func TestSessionRepository(t *testing.T) {
	t.Run("InMemory", testSessionRepository(""))
	t.Run("OnDisk", func(t *testing.T) {
		testSessionRepository(t.TempDir())(t)
	})
}

func TestSessionRepositoryReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	info := createTestSession()

	repo, err := dbbadger.NewSessionRepository(dir, nil)
	require.NoError(t, err)
	require.NoError(t, repo.SaveSession(ctx, info))
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())

	repo, err = dbbadger.NewSessionRepository(dir, nil)
	require.NoError(t, err)
	defer repo.Close()

	stored, err := repo.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, info, *stored)
}

func testSessionRepository(dir string) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		repo, err := dbbadger.NewSessionRepository(dir, nil)
		require.NoError(t, err)
		defer repo.Close()

		stored, err := repo.GetSession(ctx)
		require.NoError(t, err)
		require.Nil(t, stored)

		info := createTestSession()
		require.NoError(t, repo.SaveSession(ctx, info))

		stored, err = repo.GetSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.Equal(t, info, *stored)

		info.CurrentNetwork = domain.SepoliaName
		info.Wallet.Index = 3
		require.NoError(t, repo.SaveSession(ctx, info))

		stored, err = repo.GetSession(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.SepoliaName, stored.CurrentNetwork)
		require.Equal(t, uint32(3), stored.Wallet.Index)
	}
}

func createTestSession() domain.SessionInfo {
	return domain.SessionInfo{
		Wallet: domain.WalletInfo{
			Mnemonic:       domain.DefaultMnemonic,
			DerivationPath: domain.DefaultDerivationPath,
		},
		CurrentNetwork: domain.AnvilName,
		Networks:       domain.DefaultNetworks(),
	}
}
