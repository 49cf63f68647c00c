package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/walletd/walletd/internal/core/domain"
	"github.com/walletd/walletd/pkg/wallet"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// PeerListeningPortKey is the port where the websocket peer interface will listen on
	PeerListeningPortKey = "PEER_LISTENING_PORT"
	// OperatorListeningPortKey is the port where the REST operator interface will listen on
	OperatorListeningPortKey = "OPERATOR_LISTENING_PORT"
	// PeerQueueSizeKey is the number of notifications a peer can have pending
	// before being dropped
	PeerQueueSizeKey = "PEER_QUEUE_SIZE"
	// NetworkKey is the name of the network activated when no session is stored
	NetworkKey = "NETWORK"
	// MnemonicKey is the secret of the wallet used when no session is stored
	MnemonicKey = "MNEMONIC"
	// DerivationPathKey is the base derivation path of the initial wallet
	DerivationPathKey = "DERIVATION_PATH"
	// AccountIndexKey is the account index of the initial wallet
	AccountIndexKey = "ACCOUNT_INDEX"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval (in seconds) for printing runtime statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// NoPersistenceKey keeps the session in memory only
	NoPersistenceKey = "NO_PERSISTENCE"

	DbLocation       = "db"
	ProfilerLocation = "stats"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("walletd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("WALLETD")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(PeerListeningPortKey, 1248)
	vip.SetDefault(OperatorListeningPortKey, 9000)
	vip.SetDefault(PeerQueueSizeKey, 64)
	vip.SetDefault(NetworkKey, domain.MainnetName)
	vip.SetDefault(MnemonicKey, domain.DefaultMnemonic)
	vip.SetDefault(DerivationPathKey, domain.DefaultDerivationPath)
	vip.SetDefault(AccountIndexKey, 0)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)
	vip.SetDefault(NoPersistenceKey, false)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint32(key string) uint32 {
	return vip.GetUint32(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the session store, or an empty string
// if the session must be kept in memory
func GetDbDir() string {
	if GetBool(NoPersistenceKey) {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetWalletInfo returns the secret material of the initial wallet
func GetWalletInfo() domain.WalletInfo {
	return domain.WalletInfo{
		Mnemonic:       GetString(MnemonicKey),
		DerivationPath: GetString(DerivationPathKey),
		Index:          GetUint32(AccountIndexKey),
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("%s must be in range [%d, %d]",
			LogLevelKey, log.PanicLevel, log.TraceLevel)
	}

	for _, key := range []string{PeerListeningPortKey, OperatorListeningPortKey} {
		if port := GetInt(key); port <= 0 || port > 65535 {
			return fmt.Errorf("%s must be a valid port number", key)
		}
	}
	if GetInt(PeerListeningPortKey) == GetInt(OperatorListeningPortKey) {
		return fmt.Errorf(
			"%s and %s must be different", PeerListeningPortKey, OperatorListeningPortKey,
		)
	}

	if GetInt(PeerQueueSizeKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", PeerQueueSizeKey)
	}

	if len(GetString(NetworkKey)) <= 0 {
		return fmt.Errorf("missing network")
	}

	if !wallet.IsMnemonicValid(GetString(MnemonicKey)) {
		return fmt.Errorf("invalid mnemonic")
	}
	if _, err := wallet.ParseDerivationPath(GetString(DerivationPathKey)); err != nil {
		return err
	}
	if idx := GetInt(AccountIndexKey); idx < 0 || idx > wallet.MaxNonHardenedValue {
		return fmt.Errorf("%s must be in range [0, %d]", AccountIndexKey, wallet.MaxNonHardenedValue)
	}

	if GetInt(StatsIntervalKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", StatsIntervalKey)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if !GetBool(NoPersistenceKey) {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
