package domain

import (
	"fmt"

	"github.com/walletd/walletd/pkg/wallet"
)

const (
	// DefaultMnemonic is the well-known development mnemonic used when no
	// wallet has been configured. Never use it to hold real funds.
	DefaultMnemonic = "test test test test test test test test test test test junk"
	// DefaultDerivationPath is the BIP44 path template for EVM accounts
	DefaultDerivationPath = "m/44'/60'/0'/0"
)

// WalletInfo is the serializable part of a Wallet
type WalletInfo struct {
	Mnemonic       string `json:"mnemonic"`
	DerivationPath string `json:"derivationPath"`
	Index          uint32 `json:"idx"`
}

// Wallet is the active signing identity. The signer is a cache derived from
// the secret material and the chain id it is bound to; it is never persisted.
type Wallet struct {
	mnemonic       string
	derivationPath string
	index          uint32
	signer         *wallet.Signer
}

// NewWallet derives the signer for the given secret material and chain id
func NewWallet(
	mnemonic, derivationPath string, index, chainID uint32,
) (*Wallet, error) {
	signer, err := wallet.DeriveSigner(wallet.DeriveSignerOpts{
		Mnemonic:       mnemonic,
		DerivationPath: derivationPath,
		AccountIndex:   index,
		ChainID:        chainID,
	})
	if err != nil {
		return nil, err
	}

	return &Wallet{
		mnemonic:       mnemonic,
		derivationPath: derivationPath,
		index:          index,
		signer:         signer,
	}, nil
}

// NewWalletFromInfo rebuilds a Wallet from its serializable projection
func NewWalletFromInfo(info WalletInfo, chainID uint32) (*Wallet, error) {
	return NewWallet(info.Mnemonic, info.DerivationPath, info.Index, chainID)
}

// DefaultWallet returns the development wallet bound to the given chain id
func DefaultWallet(chainID uint32) (*Wallet, error) {
	return NewWallet(DefaultMnemonic, DefaultDerivationPath, 0, chainID)
}

// Rederive returns a new Wallet holding the same secret material with the
// signer bound to chainID. The receiver is left untouched.
func (w *Wallet) Rederive(chainID uint32) (*Wallet, error) {
	return NewWallet(w.mnemonic, w.derivationPath, w.index, chainID)
}

func (w *Wallet) Signer() *wallet.Signer {
	return w.signer
}

func (w *Wallet) ChainID() uint32 {
	return w.signer.ChainID()
}

func (w *Wallet) DerivationPath() string {
	return w.derivationPath
}

func (w *Wallet) Index() uint32 {
	return w.index
}

// ChecksummedAddress returns the EIP-55 encoded address of the signer
func (w *Wallet) ChecksummedAddress() string {
	return w.signer.ChecksummedAddress()
}

func (w *Wallet) Info() WalletInfo {
	return WalletInfo{
		Mnemonic:       w.mnemonic,
		DerivationPath: w.derivationPath,
		Index:          w.index,
	}
}

// String never exposes the mnemonic, so wallets can be safely logged
func (w *Wallet) String() string {
	return fmt.Sprintf("%s (%s/%d)", w.ChecksummedAddress(), w.derivationPath, w.index)
}
