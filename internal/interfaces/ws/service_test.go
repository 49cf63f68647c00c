package wsinterface_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/core/domain"
	wsinterface "github.com/walletd/walletd/internal/interfaces/ws"
)

func TestService(t *testing.T) {
	ctx := context.Background()

	session, err := application.NewSession(application.SessionOpts{})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	handle := application.NewHandle(session)

	svc, err := wsinterface.NewService(wsinterface.ServiceOpts{
		Address: "127.0.0.1:0",
		Handle:  handle,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(svc.(http.Handler))
	defer srv.Close()
	defer svc.Stop()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return numOfPeers(t, handle) == 1
	}, 2*time.Second, 10*time.Millisecond)

	err = handle.Do(ctx, func(s *application.Session) error {
		return s.SetCurrentNetwork(domain.AnvilName)
	})
	require.NoError(t, err)

	// nolint
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t,
		`{"method":"chainChanged","params":{"chainId":"0x7a69","networkVersion":"anvil"}}`,
		string(msg),
	)

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
	conn.Close()

	require.Eventually(t, func() bool {
		return numOfPeers(t, handle) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServiceStop(t *testing.T) {
	session, err := application.NewSession(application.SessionOpts{})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	handle := application.NewHandle(session)

	svc, err := wsinterface.NewService(wsinterface.ServiceOpts{
		Address: "127.0.0.1:0",
		Handle:  handle,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(svc.(http.Handler))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return numOfPeers(t, handle) == 1
	}, 2*time.Second, 10*time.Millisecond)

	svc.Stop()

	// Live connections are closed and their peers unregistered.
	require.Zero(t, numOfPeers(t, handle))
	// nolint
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	// Upgrades are refused once stopped.
	late, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Nil(t, late)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Zero(t, numOfPeers(t, handle))
}

func TestFailingNewService(t *testing.T) {
	session, err := application.NewSession(application.SessionOpts{})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	tests := []struct {
		name string
		opts wsinterface.ServiceOpts
	}{
		{"missing address", wsinterface.ServiceOpts{Handle: application.NewHandle(session)}},
		{"missing handle", wsinterface.ServiceOpts{Address: ":1248"}},
		{
			"negative queue size",
			wsinterface.ServiceOpts{
				Address:   ":1248",
				Handle:    application.NewHandle(session),
				QueueSize: -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := wsinterface.NewService(tt.opts)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func numOfPeers(t *testing.T, handle *application.Handle) int {
	guard, err := handle.Lock(context.Background())
	require.NoError(t, err)
	defer guard.Unlock()
	return guard.Peers().Len()
}
