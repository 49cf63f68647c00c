package wallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// DeriveSignerOpts is the struct given to DeriveSigner method
type DeriveSignerOpts struct {
	Mnemonic       string
	DerivationPath string
	AccountIndex   uint32
	ChainID        uint32
}

func (o DeriveSignerOpts) validate() (DerivationPath, error) {
	if len(strings.TrimSpace(o.Mnemonic)) <= 0 {
		return nil, ErrNullMnemonic
	}
	if !IsMnemonicValid(o.Mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if o.AccountIndex > MaxNonHardenedValue {
		return nil, ErrOutOfRangeAccountIndex
	}

	path, err := ParseDerivationPath(o.DerivationPath)
	if err != nil {
		return nil, err
	}
	return path.Child(o.AccountIndex), nil
}

// DeriveSigner derives the signing key found at <DerivationPath>/<AccountIndex>
// and binds it to the given chain id. The same options always produce the
// same key material.
func DeriveSigner(opts DeriveSignerOpts) (*Signer, error) {
	path, err := opts.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivation, err)
	}

	seed := generateSeedFromMnemonic(strings.Fields(opts.Mnemonic))
	key, err := deriveKey(seed, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivation, err)
	}
	privateKey, err := toECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivation, err)
	}

	return &Signer{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		path:       path,
		chainID:    opts.ChainID,
	}, nil
}
