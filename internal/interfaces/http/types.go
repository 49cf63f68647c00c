package httpinterface

import "github.com/walletd/walletd/internal/core/domain"

type WalletInfo struct {
	Address        string `json:"address"`
	DerivationPath string `json:"derivationPath"`
	Index          uint32 `json:"idx"`
	ChainID        uint32 `json:"chainId"`
}

type SessionResponse struct {
	Wallet         WalletInfo       `json:"wallet"`
	CurrentNetwork string           `json:"currentNetwork"`
	Networks       []domain.Network `json:"networks"`
	Peers          []string         `json:"peers"`
}

type SetWalletRequest struct {
	Mnemonic       string `json:"mnemonic"`
	DerivationPath string `json:"derivationPath"`
	Index          uint32 `json:"idx"`
}

// SetNetworkRequest selects the network either by name or by chain id
type SetNetworkRequest struct {
	Name    string `json:"name,omitempty"`
	ChainID uint32 `json:"chainId,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
