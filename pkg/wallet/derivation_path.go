package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet path
type DerivationPath []uint32

var (
	// DefaultBaseDerivationPath m/44'/60'/0'/0
	DefaultBaseDerivationPath = DerivationPath{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
	}
)

// ParseDerivationPath converts a derivation path string to the
// internal binary representation. Hardened elements are suffixed with
// either "'" or "h".
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) <= 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}

		var offset uint32
		if strings.HasSuffix(elem, "'") || strings.HasSuffix(elem, "h") {
			offset = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(elem[:len(elem)-1])
		}

		value, err := strconv.ParseUint(elem, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}
		if offset > 0 && value >= uint64(hdkeychain.HardenedKeyStart) {
			return nil, fmt.Errorf(
				"elem %d must be in hardened range [0, %d]", value, MaxNonHardenedValue,
			)
		}

		path = append(path, offset+uint32(value))
	}

	return path, nil
}

// Child returns a copy of the path extended with the given index
func (path DerivationPath) Child(index uint32) DerivationPath {
	child := make(DerivationPath, len(path), len(path)+1)
	copy(child, path)
	return append(child, index)
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		hardened := component >= hdkeychain.HardenedKeyStart
		if hardened {
			component -= hdkeychain.HardenedKeyStart
		}
		fmt.Fprintf(&b, "/%d", component)
		if hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}
