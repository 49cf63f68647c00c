package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/walletd/walletd/internal/infrastructure/rpc"
)

var balance = cli.Command{
	Name:   "balance",
	Usage:  "print the balance of the active account on the active network",
	Action: balanceAction,
}

func balanceAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	session, err := client.getSession(ctx.Context)
	if err != nil {
		return err
	}

	var found bool
	for _, n := range session.Networks {
		if n.Name != session.CurrentNetwork {
			continue
		}
		found = true

		rpcClient, err := rpc.NewClient(ctx.Context, n)
		if err != nil {
			return err
		}
		defer rpcClient.Close()

		if err := rpcClient.CheckChainID(ctx.Context); err != nil {
			return err
		}
		balance, err := rpcClient.FormattedBalanceAt(ctx.Context, session.Wallet.Address)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", session.Wallet.Address, balance)
	}
	if !found {
		return fmt.Errorf("active network %s is not among known networks", session.CurrentNetwork)
	}

	return nil
}
