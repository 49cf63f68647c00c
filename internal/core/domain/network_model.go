package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MainnetName ...
	MainnetName = "mainnet"
	// GoerliName ...
	GoerliName = "goerli"
	// SepoliaName ...
	SepoliaName = "sepolia"
	// AnvilName ...
	AnvilName = "anvil"
)

// Network describes a selectable EVM network. Values are never mutated once
// built, a network update always replaces the whole descriptor.
type Network struct {
	Name     string `json:"name"`
	ChainID  uint32 `json:"chainId"`
	RPCURL   string `json:"rpcUrl"`
	Currency string `json:"currency"`
	Decimals uint32 `json:"decimals"`
}

func Mainnet() Network {
	return Network{
		Name:     MainnetName,
		ChainID:  1,
		RPCURL:   "https://cloudflare-eth.com",
		Currency: "ETH",
		Decimals: 18,
	}
}

func Goerli() Network {
	return Network{
		Name:     GoerliName,
		ChainID:  5,
		RPCURL:   "https://rpc.ankr.com/eth_goerli",
		Currency: "ETH",
		Decimals: 18,
	}
}

func Sepolia() Network {
	return Network{
		Name:     SepoliaName,
		ChainID:  11155111,
		RPCURL:   "https://rpc.sepolia.org",
		Currency: "ETH",
		Decimals: 18,
	}
}

func Anvil() Network {
	return Network{
		Name:     AnvilName,
		ChainID:  31337,
		RPCURL:   "http://localhost:8545",
		Currency: "ETH",
		Decimals: 18,
	}
}

// DefaultNetworks returns the built-in networks a fresh session starts with
func DefaultNetworks() []Network {
	return []Network{Mainnet(), Goerli(), Sepolia(), Anvil()}
}

// Validate checks the descriptor can be used as a network key
func (n Network) Validate() error {
	if len(strings.TrimSpace(n.Name)) <= 0 {
		return fmt.Errorf("%w: missing name", ErrInvalidNetwork)
	}
	if n.ChainID == 0 {
		return fmt.Errorf("%w: chain id of %s must not be zero", ErrInvalidNetwork, n.Name)
	}
	return nil
}

// ChainIDHex returns the chain id as lowercase hex prefixed with 0x
func (n Network) ChainIDHex() string {
	return fmt.Sprintf("0x%x", n.ChainID)
}

// FormatAmount renders an amount expressed in base units (ie. wei) in units
// of the network currency
func (n Network) FormatAmount(amount *big.Int) string {
	if amount == nil {
		amount = big.NewInt(0)
	}
	value := decimal.NewFromBigInt(amount, -int32(n.Decimals))
	return fmt.Sprintf("%s %s", value.String(), n.Currency)
}

func (n Network) String() string {
	return fmt.Sprintf("%d-%s", n.ChainID, n.Name)
}
