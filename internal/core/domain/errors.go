package domain

import "errors"

var (
	// ErrNetworkNotFound is returned when a network name or chain id does not
	// resolve to any known network
	ErrNetworkNotFound = errors.New("network not found")
	// ErrInvalidNetwork ...
	ErrInvalidNetwork = errors.New("network is invalid")
	// ErrNullWallet ...
	ErrNullWallet = errors.New("wallet must not be null")
)
