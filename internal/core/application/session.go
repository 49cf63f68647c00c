package application

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/core/domain"
	"github.com/walletd/walletd/internal/core/ports"
	"github.com/walletd/walletd/pkg/stats"
)

// SessionOpts is the struct given to NewSession and LoadSession. Zero values
// select the built-in networks, mainnet and the development wallet.
type SessionOpts struct {
	Networks       []domain.Network
	CurrentNetwork string
	Wallet         *domain.WalletInfo
	Repository     ports.SessionRepository
}

// Session is the state shared by every peer connection: the active wallet,
// the active network, the known networks and the connected peers.
//
// A Session is not safe for concurrent use on its own. Every method must be
// called while holding the guard of the Handle wrapping it.
type Session struct {
	wallet         *domain.Wallet
	currentNetwork string
	networks       map[string]domain.Network
	peers          *PeerRegistry

	repository ports.SessionRepository
	persister  *persister
	closed     bool
}

// NewSession returns a fresh session. If a repository is given, every
// committed transition is written to it in background.
func NewSession(opts SessionOpts) (*Session, error) {
	networks := opts.Networks
	if len(networks) <= 0 {
		networks = domain.DefaultNetworks()
	}
	networksByName, err := mapNetworks(networks)
	if err != nil {
		return nil, err
	}

	currentNetwork := opts.CurrentNetwork
	if currentNetwork == "" {
		currentNetwork = domain.MainnetName
	}
	current, ok := networksByName[currentNetwork]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNetworkNotFound, currentNetwork)
	}

	var wallet *domain.Wallet
	if opts.Wallet != nil {
		wallet, err = domain.NewWalletFromInfo(*opts.Wallet, current.ChainID)
	} else {
		wallet, err = domain.DefaultWallet(current.ChainID)
	}
	if err != nil {
		return nil, err
	}

	return newSession(wallet, currentNetwork, networksByName, opts.Repository), nil
}

// LoadSession restores the session stored in repo. Loading happens in two
// phases: the serializable projection is read first, then the signer is
// derived under the chain id of the stored active network. If the repository
// is empty a new session is created from opts and stored.
func LoadSession(
	ctx context.Context, repo ports.SessionRepository, opts SessionOpts,
) (*Session, error) {
	if repo == nil {
		return NewSession(opts)
	}

	info, err := repo.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if info == nil {
		opts.Repository = repo
		session, err := NewSession(opts)
		if err != nil {
			return nil, err
		}
		if err := session.Persist(ctx); err != nil {
			return nil, err
		}
		log.Info("initialized new session")
		return session, nil
	}

	networksByName, err := mapNetworks(info.Networks)
	if err != nil {
		return nil, err
	}
	current, err := info.NetworkByName(info.CurrentNetwork)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, info.CurrentNetwork)
	}
	wallet, err := domain.NewWalletFromInfo(info.Wallet, current.ChainID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"network": current.String(),
		"address": wallet.ChecksummedAddress(),
	}).Info("restored session")

	return newSession(wallet, info.CurrentNetwork, networksByName, repo), nil
}

func newSession(
	wallet *domain.Wallet,
	currentNetwork string,
	networks map[string]domain.Network,
	repo ports.SessionRepository,
) *Session {
	s := &Session{
		wallet:         wallet,
		currentNetwork: currentNetwork,
		networks:       networks,
		peers:          NewPeerRegistry(),
		repository:     repo,
	}
	if repo != nil {
		s.persister = newPersister(repo)
	}
	return s
}

func (s *Session) Wallet() *domain.Wallet {
	return s.wallet
}

func (s *Session) Peers() *PeerRegistry {
	return s.peers
}

func (s *Session) CurrentNetworkName() string {
	return s.currentNetwork
}

// CurrentNetwork resolves the active network name
func (s *Session) CurrentNetwork() (domain.Network, error) {
	return s.networkByName(s.currentNetwork)
}

// Networks returns the known networks sorted by name
func (s *Session) Networks() []domain.Network {
	networks := make([]domain.Network, 0, len(s.networks))
	for _, n := range s.networks {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Name < networks[j].Name
	})
	return networks
}

// SetWallet installs w as the active wallet and broadcasts accountsChanged
// if the active address changes. A wallet derived for another chain id is
// first re-derived under the active one.
// It fails with domain.ErrNetworkNotFound when the active network was dropped
// by SetNetworks: a network switch must come first.
func (s *Session) SetWallet(w *domain.Wallet) error {
	if w == nil {
		return domain.ErrNullWallet
	}
	current, err := s.CurrentNetwork()
	if err != nil {
		return err
	}
	if w.ChainID() != current.ChainID {
		if w, err = w.Rederive(current.ChainID); err != nil {
			return err
		}
	}

	previousAddress := s.wallet.ChecksummedAddress()
	s.wallet = w
	newAddress := s.wallet.ChecksummedAddress()

	changed := previousAddress != newAddress
	stats.Transitions.WithLabelValues("wallet", fmt.Sprint(changed)).Inc()
	if changed {
		log.WithField("address", newAddress).Info("active account changed")
		s.broadcast(AccountsChanged(newAddress))
	}

	s.persist()
	return nil
}

// SetWalletFromInfo derives a wallet from its secret material under the
// active chain id and installs it with SetWallet.
func (s *Session) SetWalletFromInfo(info domain.WalletInfo) error {
	current, err := s.CurrentNetwork()
	if err != nil {
		return err
	}
	w, err := domain.NewWalletFromInfo(info, current.ChainID)
	if err != nil {
		return err
	}
	return s.SetWallet(w)
}

// SetCurrentNetwork activates the network with the given name. When the
// chain id changes, the signer is re-derived under the new chain id and
// chainChanged is broadcast. Nothing is committed on failure.
func (s *Session) SetCurrentNetwork(name string) error {
	newNetwork, err := s.networkByName(name)
	if err != nil {
		return err
	}
	// The previous name may be dangling after a bulk network update, in which
	// case the switch is always treated as a chain change.
	previousNetwork, prevErr := s.CurrentNetwork()

	if prevErr == nil && previousNetwork.ChainID == newNetwork.ChainID {
		s.currentNetwork = name
		stats.Transitions.WithLabelValues("network", "false").Inc()
		s.persist()
		return nil
	}

	wallet := s.wallet
	if wallet.ChainID() != newNetwork.ChainID {
		log.Debugf("new chain id %d", newNetwork.ChainID)
		if wallet, err = s.wallet.Rederive(newNetwork.ChainID); err != nil {
			return err
		}
	}

	s.currentNetwork = name
	s.wallet = wallet
	stats.Transitions.WithLabelValues("network", "true").Inc()
	log.WithField("network", newNetwork.String()).Info("active network changed")

	s.broadcast(ChainChanged(newNetwork))
	s.persist()
	return nil
}

// SetCurrentNetworkByID activates a network with the given chain id. If more
// than one network matches, the one with the lowest name is selected.
func (s *Session) SetCurrentNetworkByID(chainID uint32) error {
	var name string
	for _, n := range s.networks {
		if n.ChainID != chainID {
			continue
		}
		if name == "" || n.Name < name {
			name = n.Name
		}
	}
	if name == "" {
		return fmt.Errorf("%w: chain id %d", domain.ErrNetworkNotFound, chainID)
	}
	return s.SetCurrentNetwork(name)
}

// SetNetworks replaces all known networks, later entries override earlier
// ones with the same name. It does not check that the active network is
// still known: callers dropping it must follow with a network switch.
func (s *Session) SetNetworks(networks []domain.Network) error {
	networksByName, err := mapNetworks(networks)
	if err != nil {
		return err
	}
	s.networks = networksByName

	if _, ok := s.networks[s.currentNetwork]; !ok {
		log.WithField("network", s.currentNetwork).
			Warn("active network is not among the new networks")
	}

	s.persist()
	return nil
}

// AddPeer registers a connected peer
func (s *Session) AddPeer(peer *Peer) error {
	if peer == nil {
		return ErrNullPeer
	}
	if s.closed {
		peer.Close()
		return ErrSessionClosed
	}
	s.peers.Add(peer)
	log.WithFields(log.Fields{
		"peer":    peer.Addr(),
		"peer_id": peer.ID(),
	}).Debug("peer connected")
	return nil
}

// RemovePeer unregisters and closes the peer. A different peer registered
// later with the same address is left untouched.
func (s *Session) RemovePeer(peer *Peer) {
	if peer == nil {
		return
	}
	if registered, ok := s.peers.Get(peer.Addr()); ok && registered == peer {
		s.peers.Remove(peer.Addr())
		log.WithFields(log.Fields{
			"peer":    peer.Addr(),
			"peer_id": peer.ID(),
		}).Debug("peer disconnected")
	}
	peer.Close()
}

// Broadcast sends the notification to all connected peers and returns the
// number of peers that received it
func (s *Session) Broadcast(notification Notification) int {
	return s.broadcast(notification)
}

// Snapshot returns the serializable projection of the session
func (s *Session) Snapshot() domain.SessionInfo {
	return domain.SessionInfo{
		Wallet:         s.wallet.Info(),
		CurrentNetwork: s.currentNetwork,
		Networks:       s.Networks(),
	}
}

// Persist synchronously writes the session to the repository
func (s *Session) Persist(ctx context.Context) error {
	if s.repository == nil {
		return fmt.Errorf("%w: no repository configured", ErrPersistence)
	}
	if err := s.repository.SaveSession(ctx, s.Snapshot()); err != nil {
		stats.PersistenceFailures.Inc()
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Close flushes pending writes and disconnects every peer. The repository
// is left open, its owner is in charge of closing it.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.peers.closeAll()
	if s.persister != nil {
		s.persister.stop()
	}
}

func (s *Session) networkByName(name string) (domain.Network, error) {
	network, ok := s.networks[name]
	if !ok {
		return domain.Network{}, fmt.Errorf("%w: %s", domain.ErrNetworkNotFound, name)
	}
	return network, nil
}

func (s *Session) broadcast(notification Notification) int {
	delivered, err := s.peers.Broadcast(notification)
	if err != nil {
		log.WithError(err).Error("failed to serialize notification")
	}
	return delivered
}

func (s *Session) persist() {
	if s.persister == nil || s.closed {
		return
	}
	s.persister.enqueue(s.Snapshot())
}

func mapNetworks(networks []domain.Network) (map[string]domain.Network, error) {
	networksByName := make(map[string]domain.Network, len(networks))
	for _, n := range networks {
		if err := n.Validate(); err != nil {
			return nil, err
		}
		networksByName[n.Name] = n
	}
	return networksByName, nil
}
