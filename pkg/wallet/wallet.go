package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrDerivation is wrapped by every error returned while deriving a signer
	ErrDerivation = errors.New("key derivation failed")

	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrOutOfRangeAccountIndex ...
	ErrOutOfRangeAccountIndex = fmt.Errorf(
		"account index must be in range [0, %d]", MaxNonHardenedValue,
	)
	// ErrNullDigest ...
	ErrNullDigest = errors.New("digest to sign must not be null")
)

// Signer is the key material derived for a single account. It is bound to
// the chain id it was derived for, while its address only depends on the
// mnemonic and the derivation path.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	path       DerivationPath
	chainID    uint32
}

// Address returns the account address
func (s *Signer) Address() common.Address {
	return s.address
}

// ChecksummedAddress returns the EIP-55 mixed-case hex encoding of the
// account address
func (s *Signer) ChecksummedAddress() string {
	return s.address.Hex()
}

// ChainID returns the chain id the signer is bound to
func (s *Signer) ChainID() uint32 {
	return s.chainID
}

// Path returns the full derivation path of the signing key
func (s *Signer) Path() DerivationPath {
	return s.path
}

// SignHash signs the given 32-byte digest and returns the signature in the
// [R || S || V] format, where V is 0 or 1.
func (s *Signer) SignHash(digest []byte) ([]byte, error) {
	if len(digest) <= 0 {
		return nil, ErrNullDigest
	}
	return crypto.Sign(digest, s.privateKey)
}

// Equal reports whether both signers hold the same key material and are
// bound to the same chain id.
func (s *Signer) Equal(other *Signer) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.chainID == other.chainID &&
		s.address == other.address &&
		s.privateKey.D.Cmp(other.privateKey.D) == 0
}
