package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/core/domain"
)

const dialTimeout = 15 * time.Second

var (
	// ErrInvalidRPCURL ...
	ErrInvalidRPCURL = errors.New("invalid rpc url")
	// ErrChainIDMismatch is returned when the endpoint serves another chain
	ErrChainIDMismatch = errors.New("rpc endpoint chain id mismatch")
)

var supportedSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"ws":    {},
	"wss":   {},
}

// Client is a JSON-RPC client bound to a network descriptor
type Client struct {
	network domain.Network
	client  *ethclient.Client
}

// NewClient dials the rpc endpoint of the given network
func NewClient(ctx context.Context, network domain.Network) (*Client, error) {
	if err := ValidateURL(network.RPCURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", network.RPCURL, err)
	}

	log.WithField("network", network.String()).Debug("connected to rpc endpoint")
	return &Client{network, client}, nil
}

// ValidateURL checks rawURL is an absolute http(s) or ws(s) url
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRPCURL, err)
	}
	if _, ok := supportedSchemes[u.Scheme]; !ok {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRPCURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidRPCURL)
	}
	return nil
}

func (c *Client) Network() domain.Network {
	return c.network
}

// CheckChainID makes sure the endpoint serves the chain of the network
func (c *Client) CheckChainID(ctx context.Context) error {
	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		return err
	}
	if chainID.Cmp(new(big.Int).SetUint64(uint64(c.network.ChainID))) != 0 {
		return fmt.Errorf(
			"%w: expected %d, got %s", ErrChainIDMismatch, c.network.ChainID, chainID,
		)
	}
	return nil
}

// BalanceAt returns the latest balance of the given hex address, in wei
func (c *Client) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %s", address)
	}
	return c.client.BalanceAt(ctx, common.HexToAddress(address), nil)
}

// FormattedBalanceAt is like BalanceAt but returns the balance in units of
// the network currency
func (c *Client) FormattedBalanceAt(
	ctx context.Context, address string,
) (string, error) {
	balance, err := c.BalanceAt(ctx, address)
	if err != nil {
		return "", err
	}
	return c.network.FormatAmount(balance), nil
}

func (c *Client) Close() {
	c.client.Close()
}
