package application_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/core/domain"
)

func TestHandleSerializesTransitions(t *testing.T) {
	session, err := application.NewSession(application.SessionOpts{})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	handle := application.NewHandle(session)
	ctx := context.Background()

	names := []string{
		domain.MainnetName, domain.GoerliName, domain.SepoliaName, domain.AnvilName,
	}
	numOfSwitches := 40
	peer := application.NewPeer("127.0.0.1:4000", numOfSwitches)
	require.NoError(t, session.AddPeer(peer))

	wg := &sync.WaitGroup{}
	wg.Add(numOfSwitches)
	for i := 0; i < numOfSwitches; i++ {
		name := names[i%len(names)]
		go func() {
			defer wg.Done()
			err := handle.Do(ctx, func(s *application.Session) error {
				return s.SetCurrentNetwork(name)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	guard, err := handle.Lock(ctx)
	require.NoError(t, err)
	defer guard.Unlock()

	current, err := guard.CurrentNetwork()
	require.NoError(t, err)
	assert.Equal(t, current.ChainID, guard.Wallet().ChainID())

	// The last chainChanged observed by the peer names the final network.
	msgs := drain(peer)
	if len(msgs) > 0 {
		assert.Equal(t, current.ChainIDHex(), chainIDOf(t, msgs[len(msgs)-1]))
	} else {
		assert.Equal(t, domain.MainnetName, current.Name)
	}
}

func TestHandleDistinctChainSwitches(t *testing.T) {
	numOfNetworks := 16
	networks := make([]domain.Network, 0, numOfNetworks)
	for i := 0; i < numOfNetworks; i++ {
		networks = append(networks, domain.Network{
			Name:     fmt.Sprintf("net-%02d", i),
			ChainID:  uint32(1000 + i),
			RPCURL:   "http://localhost:8545",
			Currency: "ETH",
			Decimals: 18,
		})
	}

	session, err := application.NewSession(application.SessionOpts{
		Networks:       networks,
		CurrentNetwork: networks[0].Name,
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	peer := application.NewPeer("127.0.0.1:4000", numOfNetworks)
	require.NoError(t, session.AddPeer(peer))

	handle := application.NewHandle(session)
	ctx := context.Background()

	wg := &sync.WaitGroup{}
	wg.Add(numOfNetworks - 1)
	for _, n := range networks[1:] {
		name := n.Name
		go func() {
			defer wg.Done()
			assert.NoError(t, handle.Do(ctx, func(s *application.Session) error {
				return s.SetCurrentNetwork(name)
			}))
		}()
	}
	wg.Wait()

	guard, err := handle.Lock(ctx)
	require.NoError(t, err)
	defer guard.Unlock()

	current, err := guard.CurrentNetwork()
	require.NoError(t, err)
	require.Equal(t, current.ChainID, guard.Wallet().ChainID())

	msgs := drain(peer)
	require.Len(t, msgs, numOfNetworks-1)

	seen := make(map[string]struct{})
	for _, msg := range msgs {
		chainID := chainIDOf(t, msg)
		require.NotContains(t, seen, chainID)
		require.NotEqual(t, networks[0].ChainIDHex(), chainID)
		seen[chainID] = struct{}{}
	}
	require.Equal(t, current.ChainIDHex(), chainIDOf(t, msgs[len(msgs)-1]))
}

func TestHandleConcurrentPeers(t *testing.T) {
	session, err := application.NewSession(application.SessionOpts{})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	handle := application.NewHandle(session)
	ctx := context.Background()

	numOfPeers := 20
	wg := &sync.WaitGroup{}
	wg.Add(numOfPeers)
	for i := 0; i < numOfPeers; i++ {
		peer := application.NewPeer(time.Duration(i).String(), 8)
		go func() {
			defer wg.Done()
			assert.NoError(t, handle.Do(ctx, func(s *application.Session) error {
				return s.AddPeer(peer)
			}))
		}()
	}
	wg.Wait()

	require.NoError(t, handle.Do(ctx, func(s *application.Session) error {
		assert.Equal(t, numOfPeers, s.Peers().Len())
		assert.Equal(t, numOfPeers, s.Broadcast(application.AccountsChanged("0x0")))
		return nil
	}))
}

func TestHandleLock(t *testing.T) {
	session, _ := newTestSession(t)
	handle := application.NewHandle(session)

	t.Run("lock is cancelled with its context", func(t *testing.T) {
		guard, err := handle.Lock(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = handle.Lock(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		guard.Unlock()
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		guard, err := handle.Lock(context.Background())
		require.NoError(t, err)
		guard.Unlock()
		guard.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		other, err := handle.Lock(ctx)
		require.NoError(t, err)

		// A second release of the first guard must not free the handle.
		guard.Unlock()
		_, err = handle.Lock(shortContext(t))
		assert.Error(t, err)

		other.Unlock()
	})

	t.Run("do propagates errors", func(t *testing.T) {
		err := handle.Do(context.Background(), func(s *application.Session) error {
			return s.SetCurrentNetwork("does-not-exist")
		})
		assert.ErrorIs(t, err, domain.ErrNetworkNotFound)

		guard, err := handle.Lock(context.Background())
		require.NoError(t, err)
		guard.Unlock()
	})
}

func shortContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}
