package main

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/core/domain"
	httpinterface "github.com/walletd/walletd/internal/interfaces/http"
)

func TestState(t *testing.T) {
	withTempState(t)

	_, err := getState()
	require.Error(t, err)

	require.NoError(t, setState(map[string]string{"rpcserver": "localhost:9000"}))
	require.NoError(t, setState(map[string]string{"foo": "bar"}))
	require.NoError(t, setState(map[string]string{"rpcserver": "localhost:9001"}))

	state, err := getState()
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"rpcserver": "localhost:9001",
		"foo":       "bar",
	}, state)
}

func TestOperatorClient(t *testing.T) {
	session, err := application.NewSession(application.SessionOpts{})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	srv := httptest.NewServer(
		httpinterface.NewOperatorHandler(application.NewHandle(session)),
	)
	defer srv.Close()

	ctx := context.Background()
	client := newOperatorClient(srv.URL)

	res, err := client.getSession(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.MainnetName, res.CurrentNetwork)

	reply := &httpinterface.SessionResponse{}
	err = client.do(ctx, http.MethodPost, "/v1/network",
		httpinterface.SetNetworkRequest{ChainID: 31337}, reply)
	require.NoError(t, err)
	require.Equal(t, domain.AnvilName, reply.CurrentNetwork)

	err = client.do(ctx, http.MethodPost, "/v1/network",
		httpinterface.SetNetworkRequest{Name: "unknown"}, reply)
	require.Error(t, err)
	require.Contains(t, err.Error(), domain.ErrNetworkNotFound.Error())
}

func TestParseSetNetworkRequest(t *testing.T) {
	req, err := parseSetNetworkRequest(domain.AnvilName, 0)
	require.NoError(t, err)
	require.Equal(t, httpinterface.SetNetworkRequest{Name: domain.AnvilName}, req)

	req, err = parseSetNetworkRequest("", math.MaxUint32)
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), req.ChainID)

	tests := []struct {
		name    string
		network string
		chainID uint64
	}{
		{"missing name and chain id", "", 0},
		{"both name and chain id", domain.AnvilName, 31337},
		{"chain id overflowing uint32", "", math.MaxUint32 + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSetNetworkRequest(tt.network, tt.chainID)
			require.Error(t, err)
		})
	}
}

func TestReadNetworksFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	buf, err := json.Marshal(domain.DefaultNetworks())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(valid, buf, 0644))

	networks, err := readNetworksFile(valid)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultNetworks(), networks)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"name":"x"}]`), 0644))
	_, err = readNetworksFile(invalid)
	require.ErrorIs(t, err, domain.ErrInvalidNetwork)

	_, err = readNetworksFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func withTempState(t *testing.T) {
	dir, path := walletctlDataDir, statePath
	walletctlDataDir = filepath.Join(t.TempDir(), "walletctl")
	statePath = filepath.Join(walletctlDataDir, "state.json")
	t.Cleanup(func() {
		walletctlDataDir, statePath = dir, path
	})
}
