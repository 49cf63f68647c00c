package domain

// SessionInfo is the persisted projection of a session: the secret material
// of the active wallet, the active network name and the known networks.
// Derived keys and connected peers are rebuilt at load time.
type SessionInfo struct {
	Wallet         WalletInfo `json:"wallet"`
	CurrentNetwork string     `json:"currentNetwork"`
	Networks       []Network  `json:"networks"`
}

// NetworkByName returns the network with the given name. Like for a bulk
// network update, the last entry wins in case of duplicates.
func (s SessionInfo) NetworkByName(name string) (Network, error) {
	found := false
	var network Network
	for _, n := range s.Networks {
		if n.Name == name {
			network, found = n, true
		}
	}
	if !found {
		return Network{}, ErrNetworkNotFound
	}
	return network, nil
}
