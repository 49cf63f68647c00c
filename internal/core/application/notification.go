package application

import "github.com/walletd/walletd/internal/core/domain"

const (
	MethodAccountsChanged = "accountsChanged"
	MethodChainChanged    = "chainChanged"
)

// Notification is the message pushed to every connected peer when an
// observable value of the session changes.
type Notification struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type ChainChangedParams struct {
	ChainID        string `json:"chainId"`
	NetworkVersion string `json:"networkVersion"`
}

// AccountsChanged returns the notification for a new active address
func AccountsChanged(address string) Notification {
	return Notification{
		Method: MethodAccountsChanged,
		Params: []string{address},
	}
}

// ChainChanged returns the notification for a new active network
func ChainChanged(network domain.Network) Notification {
	return Notification{
		Method: MethodChainChanged,
		Params: ChainChangedParams{
			ChainID:        network.ChainIDHex(),
			NetworkVersion: network.Name,
		},
	}
}
