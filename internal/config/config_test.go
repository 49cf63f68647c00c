package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/core/domain"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("WALLETD_DATADIR", datadir)
	t.Setenv("WALLETD_NETWORK", domain.AnvilName)
	t.Setenv("WALLETD_ACCOUNT_INDEX", "2")

	require.NoError(t, config.InitConfig())

	require.Equal(t, datadir, config.GetDatadir())
	require.Equal(t, filepath.Join(datadir, config.DbLocation), config.GetDbDir())
	require.DirExists(t, config.GetDbDir())
	require.Equal(t, 1248, config.GetInt(config.PeerListeningPortKey))
	require.Equal(t, 9000, config.GetInt(config.OperatorListeningPortKey))
	require.Equal(t, 64, config.GetInt(config.PeerQueueSizeKey))
	require.Equal(t, domain.AnvilName, config.GetString(config.NetworkKey))
	require.Equal(t, domain.WalletInfo{
		Mnemonic:       domain.DefaultMnemonic,
		DerivationPath: domain.DefaultDerivationPath,
		Index:          2,
	}, config.GetWalletInfo())
}

func TestInitConfigNoPersistence(t *testing.T) {
	t.Setenv("WALLETD_DATADIR", t.TempDir())
	t.Setenv("WALLETD_NO_PERSISTENCE", "true")

	require.NoError(t, config.InitConfig())
	require.Empty(t, config.GetDbDir())
}

func TestFailingInitConfig(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid log level", "WALLETD_LOG_LEVEL", "9"},
		{"invalid peer port", "WALLETD_PEER_LISTENING_PORT", "70000"},
		{"same ports", "WALLETD_PEER_LISTENING_PORT", "9000"},
		{"invalid queue size", "WALLETD_PEER_QUEUE_SIZE", "0"},
		{"invalid mnemonic", "WALLETD_MNEMONIC", "not a mnemonic"},
		{"invalid derivation path", "WALLETD_DERIVATION_PATH", "m/44'/x"},
		{"invalid account index", "WALLETD_ACCOUNT_INDEX", "-1"},
		{"invalid stats interval", "WALLETD_STATS_INTERVAL", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WALLETD_DATADIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			require.Error(t, config.InitConfig())
		})
	}
}
