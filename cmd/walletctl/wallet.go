package main

import (
	"errors"
	"net/http"

	"github.com/urfave/cli/v2"
	httpinterface "github.com/walletd/walletd/internal/interfaces/http"
)

var walletCmd = cli.Command{
	Name:  "wallet",
	Usage: "manage the active wallet of the daemon",
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "derive and activate a wallet from its mnemonic",
			Action: setWalletAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "mnemonic",
					Usage: "space separated bip39 mnemonic",
				},
				&cli.StringFlag{
					Name:  "derivation_path",
					Usage: "base derivation path, defaults to m/44'/60'/0'/0",
				},
				&cli.UintFlag{
					Name:  "idx",
					Usage: "account index appended to the derivation path",
				},
			},
		},
	},
}

func setWalletAction(ctx *cli.Context) error {
	mnemonic := ctx.String("mnemonic")
	if mnemonic == "" {
		return errors.New("mnemonic must not be empty")
	}

	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	reply := &httpinterface.SessionResponse{}
	if err := client.do(
		ctx.Context, http.MethodPost, "/v1/wallet",
		httpinterface.SetWalletRequest{
			Mnemonic:       mnemonic,
			DerivationPath: ctx.String("derivation_path"),
			Index:          uint32(ctx.Uint("idx")),
		},
		reply,
	); err != nil {
		return err
	}

	printRespJSON(reply.Wallet)

	return nil
}
